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

// Command rvdbgd wires a jtag.TAP, a dtm.DTM, one dm.DM
// and a per-hart rv32 interpreter goroutine together and
// serves the Remote BitBang protocol over a TCP socket, giving OpenOCD
// (or anything else that speaks the protocol) a live target to attach
// to. It is the "emulated CPU" collaborator from §6 made runnable.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/luismarques/qemu-sub001/bitbang"
	"github.com/luismarques/qemu-sub001/config"
	"github.com/luismarques/qemu-sub001/dm"
	"github.com/luismarques/qemu-sub001/dtm"
	"github.com/luismarques/qemu-sub001/jtag"
	"github.com/luismarques/qemu-sub001/logger"
	"github.com/luismarques/qemu-sub001/monitor"
	"github.com/luismarques/qemu-sub001/netconn"
	"github.com/luismarques/qemu-sub001/rv32"
)

// hartRunBudget is the number of instructions a hart goroutine executes
// per Run call before checking for a new park-loop event. It only
// bounds latency between polls, not correctness: Run itself stops early
// on halt entry, ebreak or an illegal instruction regardless of budget.
const hartRunBudget = 4096

func main() {
	var (
		listenAddr = flag.String("listen", "127.0.0.1:9824", "address to serve the Remote BitBang protocol on")
		monAddr    = flag.String("monitor", "", "address to serve the live statsview dashboard on (empty disables it)")
		cfgFile    = flag.String("config", "", "path to a saved config file (see package config); realize-time defaults are used for any knob not present")
		dmPhyAddr  = flag.Uint("dm-phyaddr", 0x1000, "physical base address of the debug module's hart-visible window")
		logEcho    = flag.Bool("log", false, "echo the debug log to stderr")
		enableQuit = flag.Bool("enable-quit", false, "honour a 'Q' byte over the wire as a request to exit")
	)
	flag.Parse()

	if *logEcho {
		defer logger.Central().Write(os.Stderr)
	}

	cfg := config.Default(uint32(*dmPhyAddr))
	cfg.EnableQuit = *enableQuit

	if *cfgFile != "" {
		d, err := config.NewDisk(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
			os.Exit(1)
		}
		cfg.Bind(d)
		if err := d.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "rvdbgd: loading %s: %v\n", *cfgFile, err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}

	tap, err := jtag.NewTAP(cfg.TAPConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}

	transport, err := dtm.New(tap, cfg.Abits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}

	d, err := dm.New(cfg.DMConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}
	if err := transport.Register(cfg.DMIAddr, 0x80, d); err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}

	quit := make(chan struct{})
	for i := 0; i < cfg.HartCount; i++ {
		d.AddHart()
		core := d.Core(uint32(i))
		go runHart(core, quit)
	}

	tap.OnSystemReset = func() {
		logger.Log("rvdbgd", "SRST asserted: hart reset is not modelled beyond this log line")
	}

	if *monAddr != "" {
		mon := monitor.New(d)
		go func() {
			if err := mon.ListenAndServe(*monAddr); err != nil {
				logger.Logf("rvdbgd", "monitor server stopped: %v", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rvdbgd: %v\n", err)
		os.Exit(1)
	}
	logger.Logf("rvdbgd", "serving remote bitbang on %s", ln.Addr())

	listener := netconn.NewListener(ln, func() netconn.Serveable {
		return bitbang.NewServer(tap, bitbang.Config{EnableQuit: cfg.EnableQuit})
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- listener.Serve() }()

	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	select {
	case <-intChan:
	case err := <-serveErr:
		if err != nil {
			logger.Logf("rvdbgd", "listener stopped: %v", err)
		}
	}

	close(quit)
	ln.Close()
}

// runHart drives one hart's rv32 interpreter forever, a budget-bounded
// Run call at a time, until quit is closed. The DM arms FLAG.GO/
// FLAG.RESUME asynchronously from DMI traffic on another goroutine; this
// loop is what actually retires the park-loop ROM and any synthesized
// abstract-command snippet in response.
func runHart(core *rv32.Core, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		default:
			core.Run(hartRunBudget)
		}
	}
}
