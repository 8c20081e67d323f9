// iceclient is an example client binary: it dials a remote adapter over
// tcptransport and drops into a liner-backed REPL for issuing ad hoc
// invocations against it, standing in for what a generated proxy's
// methods would otherwise wrap.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/urfave/cli"

	"github.com/icebridge-project/icebridge/internal/tcptransport"
	"github.com/icebridge-project/icebridge/pkg/icelog"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

func main() {
	app := cli.NewApp()
	app.Name = "iceclient"
	app.Usage = "example REPL client for an icebridge adapter"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: "127.0.0.1:9090",
			Usage: "host:port of the adapter's tcptransport listener",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "per-invocation deadline",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "verbose logging",
		},
	}
	app.Action = attach

	if err := app.Run(os.Args); err != nil {
		icelog.Fatalln(err)
	}
}

func attach(c *cli.Context) error {
	if c.Bool("v") {
		icelog.AddStderr(icelog.DEBUG)
	} else {
		icelog.AddStderr(icelog.INFO)
	}

	addr := c.String("addr")
	timeout := c.Duration("timeout")

	transport, err := tcptransport.Dial(addr)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("iceclient: %v", err), 1)
	}
	defer transport.Close()

	fmt.Printf("connected to %v\n", addr)
	fmt.Println("commands: isa <identity> <scopedID> | ping <identity> | shout <identity> <message> | quit")

	input := liner.NewLiner()
	defer input.Close()
	input.SetCtrlCAborts(true)

	for {
		line, err := input.Prompt(fmt.Sprintf("iceclient:%v$ ", addr))
		if err == liner.ErrPromptAborted {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			icelog.Errorln(err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if line == "quit" || line == "disconnect" {
			break
		}

		runCommand(transport, timeout, line)
	}
	return nil
}

func runCommand(t *tcptransport.Transport, timeout time.Duration, line string) {
	fields := strings.Fields(line)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch fields[0] {
	case "isa":
		if len(fields) != 3 {
			fmt.Println("usage: isa <identity> <scopedID>")
			return
		}
		req := wire.NewStream(nil)
		req.WriteString(fields[2])
		s, ok := okReply(t.Invoke(ctx, fields[1], "", "ice_isA", true, req.Buf.Bytes(), timeout))
		if !ok {
			return
		}
		isA, err := s.ReadBool()
		if err != nil {
			fmt.Println("error decoding reply:", err)
			return
		}
		fmt.Println(" ->", isA)

	case "ping":
		if len(fields) != 2 {
			fmt.Println("usage: ping <identity>")
			return
		}
		if _, ok := okReply(t.Invoke(ctx, fields[1], "", "ice_ping", true, nil, timeout)); ok {
			fmt.Println(" -> alive")
		}

	case "shout":
		if len(fields) < 3 {
			fmt.Println("usage: shout <identity> <message>")
			return
		}
		req := wire.NewStream(nil)
		req.WriteString(strings.Join(fields[2:], " "))
		s, ok := okReply(t.Invoke(ctx, fields[1], "", "shout", true, req.Buf.Bytes(), timeout))
		if !ok {
			return
		}
		reply, err := s.ReadString()
		if err != nil {
			fmt.Println("error decoding reply:", err)
			return
		}
		fmt.Println(" ->", reply)

	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
}

// okReply decodes a reply frame's status byte and reports whether it was
// wire.StatusOK, printing the error/status otherwise. On success it
// returns a Stream positioned at the start of the status-specific
// payload so the caller can decode its command-specific shape.
func okReply(frame []byte, err error) (*wire.Stream, bool) {
	if err != nil {
		fmt.Println("error:", err)
		return nil, false
	}
	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, err := s.ReadReplyStatus()
	if err != nil {
		fmt.Println("error decoding reply:", err)
		return nil, false
	}
	if status != wire.StatusOK {
		fmt.Println("status:", status)
		return nil, false
	}
	return s, true
}
