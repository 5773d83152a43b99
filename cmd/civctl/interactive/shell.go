package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell is the interactive command loop of civctl.
type Shell struct {
	rl     *readline.Instance
	runner *Runner
}

// NewShell creates the readline instance. Output meant for the terminal
// while the shell runs should go through Stdout and Stderr.
func NewShell(prompt string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl}, nil
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("get",
		readline.PcItem("freq"), readline.PcItem("mode"), readline.PcItem("vfo"),
		readline.PcItem("level"), readline.PcItem("func"), readline.PcItem("ts"),
		readline.PcItem("channel"),
	),
	readline.PcItem("set",
		readline.PcItem("freq"), readline.PcItem("mode"), readline.PcItem("vfo"),
		readline.PcItem("level"), readline.PcItem("func"), readline.PcItem("ts"),
		readline.PcItem("mem"), readline.PcItem("channel"),
	),
	readline.PcItem("op",
		readline.PcItem("cpy"), readline.PcItem("xchg"), readline.PcItem("from_vfo"),
		readline.PcItem("to_vfo"), readline.PcItem("mcl"),
	),
	readline.PcItem("monitor"),
	readline.PcItem("status"),
	readline.PcItem("caps"),
	readline.PcItem("models"),
	readline.PcItem("tune"),
	readline.PcItem("signal"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// Stdout returns a writer that properly coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run reads command lines until quit, EOF or ctx is done, then calls cancel.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc, runner *Runner) {
	defer s.rl.Close()
	s.runner = runner

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		parts := strings.Fields(input)

		switch strings.ToLower(parts[0]) {
		case "help", "?":
			s.printHelp()
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if err := runner.Exec(ctx, parts); err != nil {
			if errors.Is(err, ErrUsage) {
				fmt.Fprintf(s.rl.Stdout(), "%v (type 'help' for commands)\n", err)
				continue
			}
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
CI-V Rig Commands:
  Read:
    get freq                 - Read the frequency of the current VFO
    get mode                 - Read mode and passband width
    get vfo                  - Show the selected VFO
    get level <name>         - Read a level (af, rf, sql, strength, ...)
    get func <name>          - Read a function (fagc, nb, tsql, apf)
    get ts                   - Read the tuning step
    get channel <n>          - Read a memory channel

  Write:
    set freq <f> [vfo]       - Tune, e.g. 145.5M, 7100k, 14250000
    set mode <mode> [width]  - Set mode (am, fm, usb, ...) and width (narrow, normal, wide)
    set vfo <a|b|mem>        - Select a VFO or memory mode
    set level <name> <v>     - Set a level (0..1 for gains, dB for att/preamp)
    set func <name> on|off   - Switch a function
    set ts <step>            - Set the tuning step
    set mem <n>              - Select a memory channel
    set channel <n> <f> <m>  - Program a memory channel
    op <cpy|xchg|from_vfo|to_vfo|mcl> - Run a VFO operation

  Monitor:
    monitor [duration]       - Print transceive events
    status                   - Show cached state and counters

  Simulator (-simulate):
    tune <f>                 - Turn the simulated dial
    signal <raw>             - Set the simulated S-meter reading

  General:
    caps                     - Dump the capability descriptor
    models                   - List supported models
    help                     - Show this help
    quit                     - Exit`)
}
