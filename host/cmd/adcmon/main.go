package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-tty"

	"iohwab/config"
	"iohwab/core"
	"iohwab/host/client"
	"iohwab/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	cfgPath = flag.String("config", "", "YAML analog config, for channel names and voltage scale")
	watch   = flag.Duration("watch", 0, "Poll all channels at this interval instead of reading commands")
	noColor = flag.Bool("no-color", false, "Disable colored output")
	timeout = flag.Duration("timeout", time.Second, "Response timeout")
	vrefMV  = flag.Uint("vref", config.DefaultVRefMillivolts, "Reference voltage in mV when no config is given")
	resBits = flag.Uint("bits", config.DefaultResolutionBits, "Converter resolution when no config is given")
	list    = flag.Bool("list", false, "List serial ports and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("adcmon: ")

	if *list {
		ports, err := serial.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	var names []string
	vref, bits := uint32(*vrefMV), uint8(*resBits)
	if *cfgPath != "" {
		cfg, err := config.LoadFile(*cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		names = cfg.ChannelNames()
		vref, bits = cfg.VRefMillivolts, cfg.ResolutionBits
	}
	p := newPrinter(vref, bits, names, *noColor)

	scfg := serial.DefaultConfig(*device)
	scfg.Baud = *baud
	port, err := serial.Open(scfg)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	c := client.New(port)
	c.Timeout = *timeout
	if err := c.Identify(); err != nil {
		log.Fatalf("identify: %v", err)
	}
	p.printf("Connected to %s, %d messages in dictionary\n", *device, c.Dictionary().Len())

	if *watch > 0 {
		if err := watchLoop(c, p, *watch); err != nil {
			log.Fatal(err)
		}
		return
	}

	p.printf("Enter commands (type 'help' for available commands, 'quit' to exit):\n")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		p.printf("> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		if err := runCommand(c, p, parts); err != nil {
			if err == errQuit {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("reading input: %v", err)
	}
}

var errQuit = errors.New("quit")

func runCommand(c *client.Client, p *printer, parts []string) error {
	switch parts[0] {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printHelp(p)

	case "dict":
		p.printf("%s", c.Dictionary().Raw)

	case "config":
		resp, err := c.Call("analog_config", "get_analog_config")
		if err != nil {
			return err
		}
		p.printf("channels=%d groups=%d initialized=%d\n",
			resp.Uint("count"), resp.Uint("groups"), resp.Uint("initialized"))

	case "read":
		if len(parts) < 2 || parts[1] == "all" {
			return readAll(c, p)
		}
		oid, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return fmt.Errorf("bad channel %q: %w", parts[1], err)
		}
		return readChannel(c, p, uint32(oid))

	case "stats":
		resp, err := c.Call("analog_stats", "get_analog_stats")
		if err != nil {
			return err
		}
		p.printf("fires=%d started=%d completed=%d not_started=%d overruns=%d faults=%d\n",
			resp.Uint("fires"), resp.Uint("started"), resp.Uint("completed"),
			resp.Uint("not_started"), resp.Uint("overruns"), resp.Uint("faults"))

	case "faults":
		return readFaults(c, p)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", parts[0])
	}
	return nil
}

// watchLoop polls every channel until 'q' is pressed on the terminal
func watchLoop(c *client.Client, p *printer, interval time.Duration) error {
	stop := make(chan struct{})
	if t, err := tty.Open(); err == nil {
		defer t.Close()
		p.printf("Press q to stop\n")
		go func() {
			defer close(stop)
			for {
				r, err := t.ReadRune()
				if err != nil || r == 'q' {
					return
				}
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := readAll(c, p); err != nil {
			return err
		}
		p.printf("\n")
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
}

func printHelp(p *printer) {
	p.printf("\nAvailable commands:\n")
	p.printf("  help           - Show this help message\n")
	p.printf("  dict           - Print the firmware dictionary\n")
	p.printf("  config         - Show channel and group counts\n")
	p.printf("  read [oid|all] - Read one or all channels\n")
	p.printf("  stats          - Show scheduler counters\n")
	p.printf("  faults         - Show recorded faults\n")
	p.printf("  quit/exit/q    - Exit the program\n\n")
}

func readChannel(c *client.Client, p *printer, oid uint32) error {
	resp, err := c.Call("analog_channel_state", "query_analog_channel", oid)
	if err != nil {
		return fmt.Errorf("query channel %d: %w", oid, err)
	}
	p.channel(resp.Uint("oid"), resp.Uint("value"), core.ConversionStatus(resp.Uint("status")))
	return nil
}

func readAll(c *client.Client, p *printer) error {
	resp, err := c.Call("analog_config", "get_analog_config")
	if err != nil {
		return err
	}
	for oid := uint32(0); oid < resp.Uint("count"); oid++ {
		if err := readChannel(c, p, oid); err != nil {
			return err
		}
	}
	return nil
}

// readFaults collects analog_fault responses until the firmware goes quiet
func readFaults(c *client.Client, p *printer) error {
	if err := c.Send("get_analog_faults"); err != nil {
		return err
	}
	n := 0
	for {
		resp, err := c.Expect("analog_fault")
		if err != nil {
			break
		}
		p.fault(core.FaultCode(resp.Uint("code")), resp.Uint("idx"), resp.Uint("group"), resp.Uint("clock"))
		n++
	}
	p.printf("%d faults\n", n)
	return nil
}
