// Command fatura extracts structured invoice records from scanned
// delivery-platform invoices. It wraps the extraction pipeline behind
// process, batch, validate, queue, and config subcommands.
package main
