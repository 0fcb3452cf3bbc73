package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"fatura/internal/config"
	"fatura/internal/invoice"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func okMark(colorize bool) string {
	if colorize {
		return ansiGreen + "✓" + ansiReset
	}
	return "✓"
}

func failMark(colorize bool) string {
	if colorize {
		return ansiRed + "✗" + ansiReset
	}
	return "✗"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func defaultVendor(cfg *config.Config) invoice.VendorType {
	if vendor, ok := invoice.ParseVendorType(cfg.Extraction.DefaultVendor); ok {
		return vendor
	}
	return invoice.VendorGeneric
}
