// Command fardiff renders a size treemap of a native library's symbols and
// sections as a self-contained HTML page.
package main

import "github.com/fardiff/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
