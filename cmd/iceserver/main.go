// iceserver is an example server binary: it wires a dispatch.Adapter to a
// tcptransport.Listener and registers a tiny demo servant (Echo) so a
// freshly built icebridge toolchain has something to dial with
// iceclient. A generated servant skeleton's Register<Name> function
// slots into the same Adapter in place of the demo below.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/icebridge-project/icebridge/internal/dispatch"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/internal/tcptransport"
	"github.com/icebridge-project/icebridge/pkg/icelog"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

// echo is the demo servant: it implements a one-operation interface,
// "::Demo::Echo", with a single "shout" operation (string in, string out)
// so iceclient has something to invoke out of the box.
type echo struct{}

func (echo) shout(req, reply *wire.Stream) error {
	msg, err := req.ReadString()
	if err != nil {
		return err
	}
	reply.WriteString(msg + "!")
	return nil
}

func registerDemoEcho(adapter *dispatch.Adapter) {
	servant := proxyrt.NewServant("echo-1", "", map[string]bool{"::Demo::Echo": true}, echo{}, func() {})
	table := dispatch.NewTable([]dispatch.Entry{
		{Name: "shout", Handler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {
			return impl.(echo).shout(req, reply)
		}},
	})
	adapter.Add(servant, table)
}

func main() {
	app := cli.NewApp()
	app.Name = "iceserver"
	app.Usage = "example dispatch adapter server"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "port",
			Value: 9090,
			Usage: "TCP port to listen on",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "per-read/write deadline on each connection",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "verbose logging",
		},
	}
	app.Action = serve

	if err := app.Run(os.Args); err != nil {
		icelog.Fatalln(err)
	}
}

func serve(c *cli.Context) error {
	if c.Bool("v") {
		icelog.AddStderr(icelog.DEBUG)
	} else {
		icelog.AddStderr(icelog.INFO)
	}

	adapter := dispatch.NewAdapter()
	registerDemoEcho(adapter)

	addr := fmt.Sprintf(":%d", c.Int("port"))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("iceserver: listen %s: %v", addr, err), 1)
	}
	icelog.Info("listening on %v", addr)

	listener := tcptransport.NewListener(adapter, c.Duration("timeout"))
	if err := listener.Serve(ln); err != nil {
		return cli.NewExitError(fmt.Sprintf("iceserver: %v", err), 1)
	}
	return nil
}
