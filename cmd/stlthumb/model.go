package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/stlthumb/internal/framing"
	"github.com/Faultbox/stlthumb/internal/tui"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

func cmdInfo(args []string) error {
	c, flags := newCommand("info")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	if err := c.need(1, "info <file.stl>"); err != nil {
		return err
	}

	path := c.fs.Arg(0)
	mesh, err := stl.DecodeFile(path)
	if err != nil {
		return err
	}
	st := mesh.Stats()

	info, _ := os.Stat(path)
	trailing := ""
	if info != nil && info.Size() > mesh.Consumed() {
		trailing = fmt.Sprintf(" (%d trailing bytes ignored)", info.Size()-mesh.Consumed())
	}

	header := mesh.HeaderText()
	if header == "" {
		header = "(empty)"
	}

	fmt.Println(tui.BoxStyle.Render(tui.TitleStyle.Render(filepath.Base(path)) + "\n\n" + tui.KV(
		[2]string{"Header", header},
		[2]string{"Triangles", fmt.Sprint(st.Triangles)},
		[2]string{"Bytes", fmt.Sprintf("%d%s", mesh.Consumed(), trailing)},
		[2]string{"Min", formatVec(st.Bounds.Min)},
		[2]string{"Max", formatVec(st.Bounds.Max)},
		[2]string{"Size", formatVec(st.Size)},
		[2]string{"Center", formatVec(st.Center)},
		[2]string{"Area", fmt.Sprintf("%.4g", st.SurfaceArea)},
	)))
	return nil
}

func cmdASCII(args []string) error {
	c, flags := newCommand("ascii")
	output := c.fs.String("o", "", "Write to file instead of stdout")
	name := c.fs.String("name", "", "Solid name (default: file name)")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	if err := c.need(1, "ascii [-o out.stl] <file.stl>"); err != nil {
		return err
	}

	path := c.fs.Arg(0)
	mesh, err := stl.DecodeFile(path)
	if err != nil {
		return err
	}
	solid := *name
	if solid == "" {
		solid = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if *output == "" {
		w := bufio.NewWriter(os.Stdout)
		if err := mesh.WriteASCII(w, solid); err != nil {
			return err
		}
		return w.Flush()
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := mesh.WriteASCII(f, solid); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote: %s (%d facets)\n", *output, mesh.Len())
	return nil
}

func cmdFrame(args []string) error {
	c, flags := newCommand("frame")
	if err := c.parse(flags, args); err != nil {
		return err
	}
	if err := c.need(1, "frame <file.stl>"); err != nil {
		return err
	}

	mesh, err := stl.DecodeFile(c.fs.Arg(0))
	if err != nil {
		return err
	}
	res, framed := framing.Frame(mesh, c.framingOptions())

	rows := [][2]string{
		{"Center", formatVec(res.Center)},
		{"Size", formatVec(res.Size)},
		{"Max dim", fmt.Sprintf("%.6g", res.MaxDim)},
		{"Rotated", fmt.Sprint(res.Rotated)},
		{"Distance", fmt.Sprintf("%.6g", res.Distance)},
		{"Scale", fmt.Sprintf("%.6g", res.Scale)},
		{"View h", fmt.Sprintf("%.6g", res.ViewHeight)},
		{"Eye", formatVec(res.Camera.Position)},
		{"FOV", fmt.Sprintf("%.4g°", res.Camera.FOVDegrees())},
		{"Near/far", fmt.Sprintf("%.4g / %.4g", res.Camera.Near, res.Camera.Far)},
		{"Framed", formatBox(framed.Bounds())},
	}
	body := tui.KV(rows...)
	if res.Degenerate {
		body += "\n\n" + tui.WarnStyle.Render("Degenerate geometry, using minimum extent")
	}
	fmt.Println(tui.BoxStyle.Render(tui.TitleStyle.Render("Framing") + "\n\n" + body))
	return nil
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v.X, v.Y, v.Z)
}

func formatBox(b math.Box) string {
	return formatVec(b.Min) + " .. " + formatVec(b.Max)
}
