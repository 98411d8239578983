package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"ultradl/internal/donate"
	"ultradl/internal/entity"
	"ultradl/internal/errs"
)

const shellHelp = `commands:
  preview <url>   load a link (defaults to the clipboard link)
  audio           download every item as mp3
  video           download every item as mp4
  image           download the images or thumbnails
  status          show the status line
  log             show the log panel
  donate          open the donation dialog
  close           close the donation dialog
  copy <coin>     copy a donation address
  export <path>   write the log panel to a file (.xz compresses)
  help            show this help
  quit            leave`

const shellPrompt = "ultradl> "

type shell struct {
	app *App
	in  io.Reader
	out io.Writer
}

// run reads commands until quit or end of input. Action failures are already
// on the panel, so they do not end the session.
func (s *shell) run(ctx context.Context, autofill string) error {
	if autofill != "" {
		s.println("clipboard link: " + autofill)
	}

	sc := bufio.NewScanner(s.in)

	for {
		s.print(shellPrompt)

		if !sc.Scan() {
			break
		}

		name, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		if name == "" {
			continue
		}

		if name == "preview" && strings.TrimSpace(arg) == "" {
			arg = autofill
		}

		quit, err := s.exec(ctx, strings.ToLower(name), strings.TrimSpace(arg))
		if err != nil {
			s.app.log.DebugContext(ctx, "shell command", slog.String("command", name), slog.Any("error", err))
		}

		if quit {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	s.println("")

	return sc.Err()
}

func (s *shell) exec(ctx context.Context, name, arg string) (bool, error) {
	orch := s.app.Orch

	switch name {
	case "preview":
		summary, err := orch.Preview(ctx, arg)
		if err != nil {
			return false, err
		}
		s.println(summary.String())
	case "audio", "video":
		kind, err := entity.ParseKind(name)
		if err != nil {
			return false, err
		}

		res, err := orch.Download(ctx, kind)
		s.app.PrintResult(res)

		return false, err
	case "image":
		res, err := orch.DownloadImages(ctx)
		s.app.PrintResult(res)

		return false, err
	case "status":
		s.println(s.app.Panel.StatusText())
	case "log":
		for _, line := range s.app.Panel.Lines() {
			s.println(line)
		}
	case "donate":
		s.app.PrintDonate(ctx)
	case "close":
		s.app.Modal.Click(donate.TargetBackdrop)
	case "copy":
		err := s.app.Copy(ctx, arg)
		if errors.Is(err, errs.ErrUnknownCoin) {
			s.println(err.Error())
		}

		return false, err
	case "export":
		if arg == "" {
			s.println("usage: export <path>")

			return false, nil
		}

		err := s.app.Panel.Export(ctx, arg)
		if err != nil {
			s.println(err.Error())

			return false, err
		}
		s.println("exported " + arg)
	case "help":
		s.println(shellHelp)
	case "quit", "exit":
		return true, nil
	default:
		s.println(fmt.Sprintf("unknown command %q, type help", name))
	}

	return false, nil
}

func (s *shell) print(text string) {
	_, _ = io.WriteString(s.out, text)
}

func (s *shell) println(text string) {
	_, _ = fmt.Fprintln(s.out, text)
}
