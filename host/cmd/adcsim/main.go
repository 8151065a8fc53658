package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3/physic"

	"iohwab/config"
	"iohwab/core"
	"iohwab/host/spiadc"
)

var (
	cfgPath   = flag.String("config", "", "YAML analog config (default: built-in two-group demo)")
	cycles    = flag.Int("cycles", 4, "Number of scheduling cycles to run")
	convTicks = flag.Uint("conv", 40, "Simulated conversion time in ticks")
	busyGroup = flag.Int("busy", -1, "Hold this group busy to exercise the not-started path")
	spiPort   = flag.String("spi", "", "Serve -spi-group from an MCP3008 on this SPI port")
	spiGroup  = flag.Uint("spi-group", 1, "Group served by the MCP3008")
	quiet     = flag.Bool("q", false, "Only print the result table")
)

const demoConfig = `
name: demo
cycle_ticks: 25000
groups:
  - name: internal
    id: 1
    offset: 6250
    channels:
      - {name: vin, position: 0}
  - name: external
    id: 2
    offset: 12500
    channels:
      - {name: temp0, position: 0}
      - {name: temp1, position: 1}
`

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("adcsim: ")

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.LoadFile(*cfgPath)
	} else {
		cfg, err = config.Load([]byte(demoConfig))
	}
	if err != nil {
		log.Fatal(err)
	}

	sim := core.NewSimADC(uint32(*convTicks), sample)
	if *busyGroup >= 0 {
		sim.ForceBusy(core.ADCGroupID(*busyGroup), true)
	}
	adc := newGroupMux(sim)

	if *spiPort != "" {
		port, conn, err := spiadc.Open(*spiPort, physic.MegaHertz)
		if err != nil {
			log.Fatal(err)
		}
		defer port.Close()
		g, err := spiadc.New(conn, core.ADCGroupID(*spiGroup), []uint8{0, 1, 2, 3, 4, 5, 6, 7})
		if err != nil {
			log.Fatal(err)
		}
		adc.route(core.ADCGroupID(*spiGroup), g)
	}

	core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	ring := &core.FaultRing{}
	res := run(cfg, adc, ring, *cycles, !*quiet)

	names := cfg.ChannelNames()
	fmt.Printf("\n%-16s %6s  %s\n", "channel", "value", "status")
	for i, r := range res.results {
		fmt.Printf("%-16s %6d  %s\n", names[i], r.Value, r.Status)
	}
	st := res.stats
	fmt.Printf("\nfires=%d started=%d completed=%d not_started=%d overruns=%d faults=%d late_arms=%d\n",
		st.Fires, st.Started, st.Completed, st.NotStarted, st.Overruns, st.Faults, res.lateArms)
	if ring.Total() > 0 {
		core.DumpFaultRing(ring)
	}
}

// sample produces a slow ramp per channel so successive cycles differ
func sample(group core.ADCGroupID, position int, clock uint32) core.ADCValue {
	return core.ADCValue((uint32(group)*1000 + uint32(position)*100 + clock/1000) % 4096)
}
