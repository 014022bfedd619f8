// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command lsim runs circuits read from YAML netlists.
//
//	lsim run adder.yaml --set a=0x5,b=0x3
//	lsim ports adder.yaml --circuit full_adder
//	lsim stdlib > lib.yaml
//
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
