package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"mapletap/internal/capture"
	"mapletap/internal/conf"
	"mapletap/internal/definition"
	"mapletap/internal/flog"
	"mapletap/internal/protocol"
	"mapletap/internal/protocol/maple"
	"mapletap/internal/session"
)

func startDecode(cfg *conf.Conf) {
	flog.Infof("Decoding %s...", cfg.Capture.File)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		flog.Infof("Shutdown signal received, stopping after the current segment...")
		cancel()
	}()

	st, err := decode(ctx, cfg, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		flog.Fatalf("Decoding %s failed: %v", cfg.Capture.File, err)
	}
	flog.Infof("Read %d segments, %d packets in %d sessions (%d failed)", st.segments, st.packets, st.sessions, st.failed)
}

type stats struct {
	segments int
	packets  int
	sessions int
	failed   int
}

// decode writes one line per packet to out, in the order the packets
// complete.
func decode(ctx context.Context, cfg *conf.Conf, out io.Writer) (stats, error) {
	var st stats

	var defs *definition.Repository
	if cfg.Definitions.Path != "" {
		var err error
		if defs, err = definition.Load(cfg.Definitions.Path); err != nil {
			return st, err
		}
		flog.Debugf("Loaded %d definitions from %s", defs.Len(), cfg.Definitions.Path)
	}

	factory := maple.NewFactory(maple.Config{
		Cipher:         cfg.Cipher.Provider,
		MaxBufferBytes: cfg.Session.MaxBufferBytes,
		Definitions:    defs,
	})
	reg := session.NewRegistry(session.Config{
		Parser:             factory.Parser(),
		IdleTimeout:        cfg.Session.IdleTimeout(),
		MaxPendingSegments: cfg.Session.MaxPendingSegments,
	})

	r, err := capture.Open(cfg.Capture.File, cfg.Capture.Filter())
	if err != nil {
		return st, err
	}
	defer r.Close()

	seen := make(map[*session.Session]struct{})
	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}

		seg, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, err
		}
		st.segments++

		s, res, packets, err := reg.Handle(seg)
		if s == nil {
			continue
		}
		if err != nil {
			st.failed++
		}
		for _, p := range packets {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				st.sessions++
			}
			if d, ok := defs.Lookup(p.Version, p.Locale, p.Outbound, p.Opcode); ok && d.Ignore && !cfg.Definitions.ShowIgnored {
				continue
			}
			st.packets++
			fmt.Fprintln(out, formatPacket(s, p))
		}
		if res == session.ResultCloseMe {
			flog.Debugf("Closed session %s", s.Title())
		}
		for _, idle := range reg.Reap(seg.Timestamp) {
			flog.Debugf("Reaped idle session %s", idle.Title())
		}
	}

	for _, s := range reg.Sessions() {
		if s.Protocol() == nil {
			continue
		}
		flog.Infof("%s: %d packets, %d opcodes", s.Title(), len(s.Packets()), len(s.Opcodes()))
		flog.Debugf("%s", formatInfo(s.Info()))
	}
	return st, nil
}

func formatPacket(s *session.Session, p *protocol.Packet) string {
	return s.LocalEndpoint() + "\t" + strings.Join(p.Fields(), "\t")
}

func formatInfo(info map[string]string) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+info[k])
	}
	return strings.Join(parts, "; ")
}
