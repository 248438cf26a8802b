// This file is part of qemu-sub001.
//
// qemu-sub001 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// qemu-sub001 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with qemu-sub001.  If not, see <https://www.gnu.org/licenses/>.

// Command rvdbg-dmgraph renders a configured DM's in-memory structure
// (its register file, hart bindings and park-loop ROM layout) as a
// Graphviz .dot file, for documenting or debugging a given realize-time
// configuration without attaching a real debugger.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bradleyjkemp/memviz"

	"github.com/luismarques/qemu-sub001/config"
	"github.com/luismarques/qemu-sub001/dm"
)

func main() {
	var (
		out       = flag.String("out", "dm.dot", "output .dot file path")
		dmPhyAddr = flag.Uint("dm-phyaddr", 0x1000, "physical base address of the debug module's hart-visible window")
		harts     = flag.Int("harts", 1, "number of harts to add before graphing")
	)
	flag.Parse()

	cfg := config.Default(uint32(*dmPhyAddr))
	cfg.HartCount = *harts
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdbg-dmgraph: %v\n", err)
		os.Exit(1)
	}

	d, err := dm.New(cfg.DMConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbg-dmgraph: %v\n", err)
		os.Exit(1)
	}
	for i := 0; i < cfg.HartCount; i++ {
		d.AddHart()
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbg-dmgraph: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	memviz.Map(f, d)
	fmt.Printf("wrote %s\n", *out)
}
