package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-schema/envelope"
	"github.com/wippyai/wasm-schema/schema"
	"github.com/wippyai/wasm-schema/schema/witexport"
)

func runList(a *app, _ []string) error {
	s, err := loadSchema(a.opts.schemaPath)
	if err != nil {
		return err
	}
	for _, t := range s.Sorted() {
		fmt.Fprintf(a.out, "%-13s %s\n", t.Kind(), summarize(t))
	}
	for _, m := range s.Messages() {
		line := fmt.Sprintf("%-13s %s(%s)", "message", m.Name, m.RequestType)
		if m.HasResponse() {
			line += " -> " + m.ResponseType.String()
		}
		if m.HasError() {
			line += " ! " + m.ErrorType.String()
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// summarize renders a type on one line.
func summarize(t schema.Type) string {
	var parts []string
	switch t := t.(type) {
	case *schema.StructType:
		for _, f := range t.Fields {
			parts = append(parts, f.Name+": "+f.Type.String())
		}
	case *schema.StateObjectType:
		for _, f := range t.KeyFields {
			parts = append(parts, "key "+f.Name+": "+f.Type.String())
		}
		for _, f := range t.ValueFields {
			parts = append(parts, f.Name+": "+f.Type.String())
		}
	case *schema.EnumType:
		for _, v := range t.Values {
			parts = append(parts, fmt.Sprintf("%s=%d", v.Name, v.Value))
		}
	case *schema.OneOfType:
		for _, c := range t.Cases {
			parts = append(parts, fmt.Sprintf("%s#%d: %s", c.Name, c.Discriminant, c.Type))
		}
	}
	return t.Name() + " { " + strings.Join(parts, ", ") + " }"
}

func runFingerprint(a *app, _ []string) error {
	s, err := loadSchema(a.opts.schemaPath)
	if err != nil {
		return err
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, fp)
	return nil
}

func runDiff(a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("diff takes two schema files")
	}
	old, err := loadSchema(args[0])
	if err != nil {
		return err
	}
	cur, err := loadSchema(args[1])
	if err != nil {
		return err
	}

	changes := schema.Diff(old, cur)
	if len(changes) == 0 {
		fmt.Fprintln(a.out, "no changes")
		return nil
	}
	for _, c := range changes {
		switch c.Kind {
		case schema.ChangeAdded:
			fmt.Fprintf(a.out, "+ %s\n", summarize(c.New))
		case schema.ChangeRemoved:
			fmt.Fprintf(a.out, "- %s\n", summarize(c.Old))
		default:
			fmt.Fprintf(a.out, "~ %s\n    was %s\n", summarize(c.New), summarize(c.Old))
		}
	}
	return nil
}

func runWIT(a *app, _ []string) error {
	s, err := loadSchema(a.opts.schemaPath)
	if err != nil {
		return err
	}
	defs, err := witexport.Export(s)
	if err != nil {
		return err
	}
	if !a.opts.layout {
		fmt.Fprint(a.out, witexport.Render(defs))
		return nil
	}
	for i, td := range defs {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		info := witexport.Layout(td)
		fmt.Fprintf(a.out, "// size %d, align %d\n", info.Size, info.Align)
		fmt.Fprint(a.out, witexport.Render(defs[i:i+1]))
		if len(info.Fields) > 0 {
			fmt.Fprint(a.out, "// offsets:")
			for _, slot := range info.Fields {
				fmt.Fprintf(a.out, " %s@%d", slot.Name, slot.Offset)
			}
			fmt.Fprintf(a.out, ", padding %d\n", info.Padding())
		}
	}
	return nil
}

func runSeal(a *app, _ []string) error {
	if a.opts.inPath == "" || a.opts.outPath == "" {
		return fmt.Errorf("seal needs --in and --out")
	}
	s, err := loadSchema(a.opts.schemaPath)
	if err != nil {
		return err
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return err
	}

	compression := a.cfg.Envelope.Compression
	if a.opts.compression != "" {
		if compression, err = envelope.ParseCompression(a.opts.compression); err != nil {
			return err
		}
	}

	payload, err := os.ReadFile(a.opts.inPath)
	if err != nil {
		return err
	}
	frame, err := envelope.Seal(payload, fp, compression)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.opts.outPath, frame, 0o644); err != nil {
		return err
	}

	a.logger.Info("sealed payload",
		zap.String("out", a.opts.outPath),
		zap.Int("payload", len(payload)),
		zap.Int("frame", len(frame)),
		zap.String("schema", fp.Short()),
	)
	return nil
}

func runInspect(a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("inspect takes one frame file")
	}
	frame, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	h, payload, err := envelope.OpenLimit(frame, a.cfg.Envelope.MaxPayload)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "version      %d\n", h.Version)
	fmt.Fprintf(a.out, "compression  %s\n", h.Compression)
	fmt.Fprintf(a.out, "schema       %s\n", h.Fingerprint)
	fmt.Fprintf(a.out, "payload      %d bytes (%d on disk)\n", h.Length, len(frame)-envelope.HeaderSize)

	if a.opts.schemaPath != "" {
		s, err := loadSchema(a.opts.schemaPath)
		if err != nil {
			return err
		}
		fp, err := s.Fingerprint()
		if err != nil {
			return err
		}
		if fp != h.Fingerprint {
			return fmt.Errorf("frame was sealed under schema %s, not %s", h.Fingerprint.Short(), fp.Short())
		}
		fmt.Fprintln(a.out, "schema       matches")
	}

	dump := payload
	if a.opts.dumpBytes > 0 && len(dump) > a.opts.dumpBytes {
		dump = dump[:a.opts.dumpBytes]
	}
	if len(dump) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprint(a.out, hex.Dump(dump))
		if len(dump) < len(payload) {
			fmt.Fprintf(a.out, "... %d more bytes\n", len(payload)-len(dump))
		}
	}
	return nil
}
