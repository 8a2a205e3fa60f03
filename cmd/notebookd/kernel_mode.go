package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/smilemakc/cellgraph/internal/ipc"
	"github.com/smilemakc/cellgraph/internal/kernel"
	"github.com/smilemakc/cellgraph/internal/kernel/pyhost"
)

// transportSink adapts an *ipc.Transport into kernel.Sink, framing every
// outgoing Notification over the kernel's stdout pipe.
type transportSink struct {
	t *ipc.Transport
}

func (s transportSink) Send(n kernel.Notification) {
	_ = s.t.WriteNotification(ipc.Notification{CellID: n.CellID, Output: n.Output})
}

// runKernelMode is the entrypoint executed when notebookd is re-exec'd
// with -kernel: it reads framed requests from stdin, processes each to
// completion (spec §6.5 "the kernel is a single-threaded blocking loop"),
// and writes framed notifications to stdout until a shutdown request or
// a read error (parent pipe closed) ends the loop.
func runKernelMode(pythonBin string, log zerolog.Logger) int {
	transport := ipc.NewTransport(os.Stdout, os.Stdin)

	host, err := pyhost.Launch(pythonBin)
	if err != nil {
		log.Error().Err(err).Msg("failed to launch pyhost")
		return 1
	}
	defer host.Close()

	k := kernel.New(transportSink{t: transport}, kernel.WithPythonHost(host), kernel.WithLogger(log))
	defer k.Close()

	ctx := context.Background()
	for {
		req, err := transport.ReadRequest()
		if err != nil {
			log.Info().Err(err).Msg("kernel request pipe closed, exiting")
			return 0
		}

		switch req.Type {
		case ipc.RequestRegisterCell:
			k.RegisterCell(ctx, req.CellID, req.Kind, req.Code)
		case ipc.RequestCreateCell:
			k.CreateCell(ctx, req.CellID, req.Kind)
		case ipc.RequestDeleteCell:
			k.DeleteCell(ctx, req.CellID)
		case ipc.RequestExecute:
			k.Execute(ctx, req.CellID)
		case ipc.RequestSetDBConfig:
			k.SetDBConfig(ctx, req.ConnectionString)
		case ipc.RequestShutdown:
			return 0
		default:
			log.Warn().Str("type", string(req.Type)).Msg("unknown kernel request type")
		}
	}
}
