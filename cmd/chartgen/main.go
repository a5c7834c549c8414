package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/needlethreading/xstitch"
	"github.com/needlethreading/xstitch/chart"
	"github.com/needlethreading/xstitch/imageutil"
)

func main() {
	inputFile := flag.String("i", "", "Path to the pixelized pattern PNG (required)")
	outputFile := flag.String("o", "", "Path to save the output PDF (required)")
	title := flag.String("t", "Cross-Stitch Pattern", "Pattern title printed on the cover/header")
	by := flag.String("b", "", "By-line printed under the title on the cover page")
	catalogPath := flag.String("catalog", "", "Path to a custom DMC catalog JSON (default: embedded)")

	regularFont := flag.String("font-regular", "", "Path to the regular TTF font")
	boldFont := flag.String("font-bold", "", "Path to the bold TTF font")
	italicFont := flag.String("font-italic", "", "Path to the italic TTF font")
	symbolsFont := flag.String("font-symbols", "", "Path to the first symbol TTF font")
	symbols2Font := flag.String("font-symbols2", "", "Path to the second symbol TTF font")
	flag.Parse()

	if *inputFile == "" || *outputFile == "" {
		fmt.Println("Please provide both -i and -o")
		flag.PrintDefaults()
		os.Exit(1)
	}

	img, err := imageutil.LoadImage(*inputFile)
	if err != nil {
		fmt.Printf("Error loading input image: %v\n", err)
		os.Exit(1)
	}

	entries, err := xstitch.LoadDMCCatalog(*catalogPath)
	if err != nil {
		fmt.Printf("Error loading floss catalog: %v\n", err)
		os.Exit(1)
	}
	snapper, err := xstitch.NewFlossSnapper(entries)
	if err != nil {
		fmt.Printf("Error building floss snapper: %v\n", err)
		os.Exit(1)
	}

	fontSvc, err := xstitch.LoadFontServiceFromFiles(map[xstitch.FontRole]string{
		xstitch.FontRegular:  *regularFont,
		xstitch.FontBold:     *boldFont,
		xstitch.FontItalic:   *italicFont,
		xstitch.FontSymbols:  *symbolsFont,
		xstitch.FontSymbols2: *symbols2Font,
	})
	if err != nil {
		fmt.Printf("Error loading fonts: %v\n", err)
		os.Exit(1)
	}

	fonts := chart.FontBundle{
		Regular:  readOrEmpty(*regularFont),
		Bold:     readOrEmpty(*boldFont),
		Italic:   readOrEmpty(*italicFont),
		Symbols:  readOrEmpty(*symbolsFont),
		Symbols2: readOrEmpty(*symbols2Font),
	}

	canvas := chart.NewPDFCanvas(*title)
	composer, err := chart.NewComposer(canvas, fonts, fontSvc, *title, *by)
	if err != nil {
		fmt.Printf("Error building composer: %v\n", err)
		os.Exit(1)
	}

	whitened := xstitch.Whitened(img)
	if err := composer.Compose(whitened, snapper); err != nil {
		fmt.Printf("Error composing pattern document: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		fmt.Printf("Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := canvas.Write(f); err != nil {
		fmt.Printf("Error writing PDF: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pattern document written to %s\n", *outputFile)
}

func readOrEmpty(path string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}
