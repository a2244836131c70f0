/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import "github.com/suparena/collectionstore/cmd/collectionctl/command"

func main() {
	command.Execute()
}
