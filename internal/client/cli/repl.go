package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Load(ctx context.Context, args []string) error
	New(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Select(ctx context.Context, args []string) error
	Down(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Up(ctx context.Context, args []string) error
	Drag(ctx context.Context, args []string) error
	Resize(ctx context.Context, args []string) error
	Grid(ctx context.Context, args []string) error
	Zoom(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Align(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Save(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Preview(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Quit(ctx context.Context, force bool) error
}

const helpText = `Available commands:
  load <template>               load a template
  new <template> [name]         create a template (offline only)
  list                          list elements (* selected, - disabled)
  add                           add a zone with the default geometry
  select <element|none>         select an element
  down|move <x> <y>, up         pointer gesture in screen coordinates
  drag <element> <dx> <dy>      move an element by a page offset
  resize <element> <handle> <dx> <dy>
  grid off | grid <size>        snap grid (size 5..100)
  zoom <factor>                 viewport zoom
  set <zone> <field> <value>    name, font_family, font_size, alignment, x, y, width, height
  toggle <serial|date|signature|verification> <on|off>
  align <serial|date|signature|verification> <left|center|right>
  delete <zone>                 delete a zone
  save                          save zones and fixed elements
  export <letter> [template]    export a letter to PDF
  preview                       write a PNG preview
  status                        show editor state
  exit | quit [!]               leave (quit! discards unsaved changes)`

// runREPL reads commands from scanner and dispatches them to a. The prompt,
// when non-nil, is printed before each line. Command errors are reported and
// the loop continues; it ends on scanner EOF or when a quit succeeds.
func runREPL(ctx context.Context, a execIface, prompt func() string, scanner *bufio.Scanner) {
	for {
		if prompt != nil {
			printlnFn(fmt.Sprintf("ld %s> ", prompt()))
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "load":
			err = a.Load(ctx, args)
		case "new":
			err = a.New(ctx, args)
		case "l", "list":
			err = a.List(ctx, args)
		case "add":
			err = a.Add(ctx, args)
		case "select":
			err = a.Select(ctx, args)
		case "down":
			err = a.Down(ctx, args)
		case "move":
			err = a.Move(ctx, args)
		case "up":
			err = a.Up(ctx, args)
		case "drag":
			err = a.Drag(ctx, args)
		case "resize":
			err = a.Resize(ctx, args)
		case "grid":
			err = a.Grid(ctx, args)
		case "zoom":
			err = a.Zoom(ctx, args)
		case "set":
			err = a.Set(ctx, args)
		case "toggle":
			err = a.Toggle(ctx, args)
		case "align":
			err = a.Align(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)
		case "save":
			err = a.Save(ctx, args)
		case "export":
			err = a.Export(ctx, args)
		case "preview":
			err = a.Preview(ctx, args)
		case "status":
			err = a.Status(ctx, args)
		case "exit", "quit", "exit!", "quit!":
			if err = a.Quit(ctx, strings.HasSuffix(cmd, "!")); err == nil {
				printlnFn("Bye!")
				return
			}
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}
