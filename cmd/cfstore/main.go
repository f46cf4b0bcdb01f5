// cmd/cfstore/main.go
//
// cfstore - command-line driver for the paged compound file store.
//
// Usage:
//
//	cfstore <command> [flags] <store-file> [args...]
//
// Run `cfstore --help` for the full command list.
package main

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
