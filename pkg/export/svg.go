package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/panbanda/mondrian/pkg/digraph"
)

// CheckGraphviz verifies that dot runs and identifies itself as Graphviz.
func CheckGraphviz(ctx context.Context, dot string) error {
	out, err := exec.CommandContext(ctx, dot, "-V").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGraphvizMissing, dot, err)
	}
	if !strings.Contains(string(out), "graphviz version") {
		return fmt.Errorf("%w: %s answered %q", ErrGraphvizMissing, dot, strings.TrimSpace(string(out)))
	}
	return nil
}

// WriteSVG renders g through Graphviz and writes the resulting SVG.
func WriteSVG(ctx context.Context, w io.Writer, g *digraph.Graph, o Options) error {
	if err := CheckGraphviz(ctx, o.Graphviz); err != nil {
		return err
	}

	var src bytes.Buffer
	if err := WriteDot(&src, g, o); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.Graphviz, "-Tsvg")
	cmd.Stdin = &src
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dot -Tsvg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
