// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/larsks/snarl/cmd/snarl"

func main() {
	cmd.Execute()
}
