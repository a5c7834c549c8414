package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/needlethreading/xstitch"
	"github.com/needlethreading/xstitch/imageutil"
)

func main() {
	inputFile := flag.String("i", "", "Path to the input image file (required)")
	outputFile := flag.String("o", "", "Path to save the pixelized output PNG (required)")
	maxSide := flag.Int("s", 100, "Longer side of the output grid, in stitches")
	colorCount := flag.Int("c", 24, "Maximum number of floss colors in the palette")
	catalogPath := flag.String("catalog", "", "Path to a custom DMC catalog JSON (default: embedded)")
	quiet := flag.Bool("q", false, "Suppress per-iteration progress output")
	flag.Parse()

	if *inputFile == "" || *outputFile == "" {
		fmt.Println("Please provide both -i and -o")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := []xstitch.RendererOption{
		xstitch.WithMaxSide(uint16(*maxSide)),
		xstitch.WithColorCount(uint8(*colorCount)),
		xstitch.WithFlossCatalog(*catalogPath),
	}
	if !*quiet {
		opts = append(opts, xstitch.WithProgress(xstitch.LogProgress))
	}

	startInit := time.Now()
	r, err := xstitch.NewRenderer(opts...)
	if err != nil {
		fmt.Printf("Error configuring renderer: %v\n", err)
		os.Exit(1)
	}
	endInit := time.Now()
	fmt.Printf("Renderer initialized in %v\n", endInit.Sub(startInit))

	out, err := r.RenderFile(*inputFile)
	if err != nil {
		fmt.Printf("Error rendering image: %v\n", err)
		os.Exit(1)
	}
	endComputation := time.Now()

	if err := imageutil.SavePNG(out, *outputFile); err != nil {
		fmt.Printf("Error writing to file: %v\n", err)
		os.Exit(1)
	}

	outW, outH := r.Stats()
	fmt.Printf("Output written to %s\n", *outputFile)
	fmt.Printf("Output grid: %dx%d stitches\n", outW, outH)
	fmt.Printf("Computation time: %v\n", endComputation.Sub(endInit))
}
