package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"iohwab/config"
)

var (
	output  = flag.String("o", "", "Output file (default stdout)")
	pkg     = flag.String("package", "main", "Package of the generated file")
	varName = flag.String("var", "analogConfig", "Name of the generated AnalogConfig variable")
	tags    = flag.String("tags", "", "Build constraint of the generated file")
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: adcgen [flags] config.yaml")
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("adcgen: ")

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	in := flag.Arg(0)

	cfg, err := config.LoadFile(in)
	if err != nil {
		log.Fatal(err)
	}

	w := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		w = f
	}

	err = config.Generate(w, cfg, config.GenerateOptions{
		Package:  *pkg,
		Var:      *varName,
		Source:   filepath.Base(in),
		BuildTag: *tags,
	})
	if err != nil {
		log.Fatal(err)
	}
}
