package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"gridsheet/server"
	"gridsheet/spreadsheet"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		os.Exit(consoleCommand())
	}
	switch args[0] {
	case "-h", "--help", "help":
		usage()
	case "serve":
		addr := ":8080"
		if len(args) > 1 {
			addr = args[1]
		}
		os.Exit(serveCommand(addr))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  gridsheet                start the interactive console (default)\n")
	fmt.Fprintf(os.Stderr, "  gridsheet serve [addr]   start the WebSocket sheet server (default :8080)\n")
	fmt.Fprintf(os.Stderr, "\nConsole commands:\n")
	fmt.Fprintf(os.Stderr, "  set <label> <text>   set a cell (text, number, or =formula)\n")
	fmt.Fprintf(os.Stderr, "  clear <label>        remove a cell\n")
	fmt.Fprintf(os.Stderr, "  get <label>          print a cell's evaluated value\n")
	fmt.Fprintf(os.Stderr, "  text <label>         print a cell's source text\n")
	fmt.Fprintf(os.Stderr, "  print                print the grid of evaluated values\n")
	fmt.Fprintf(os.Stderr, "  texts                print the grid of source texts\n")
	fmt.Fprintf(os.Stderr, "  size                 print the printable size\n")
	fmt.Fprintf(os.Stderr, "  quit                 exit\n")
}

func serveCommand(addr string) int {
	if err := server.New().Serve(addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func consoleCommand() int {
	sheet := spreadsheet.NewSheet()
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runLine(sheet, line); err != nil {
			if err == errQuit {
				return 0
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

var errQuit = errors.New("quit")

func runLine(sheet *spreadsheet.Sheet, line string) error {
	fields := strings.SplitN(line, " ", 3)
	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		usage()
	case "print":
		sheet.PrintValues(os.Stdout)
	case "texts":
		sheet.PrintTexts(os.Stdout)
	case "size":
		size := sheet.PrintableSize()
		fmt.Printf("%d x %d\n", size.Rows, size.Cols)
	case "set":
		if len(fields) < 2 {
			return fmt.Errorf("usage: set <label> <text>")
		}
		pos, err := spreadsheet.PositionFromLabel(fields[1])
		if err != nil {
			return err
		}
		text := ""
		if len(fields) == 3 {
			text = fields[2]
		}
		return sheet.SetCell(pos, text)
	case "clear":
		if len(fields) != 2 {
			return fmt.Errorf("usage: clear <label>")
		}
		pos, err := spreadsheet.PositionFromLabel(fields[1])
		if err != nil {
			return err
		}
		return sheet.ClearCell(pos)
	case "get", "text":
		if len(fields) != 2 {
			return fmt.Errorf("usage: %s <label>", fields[0])
		}
		pos, err := spreadsheet.PositionFromLabel(fields[1])
		if err != nil {
			return err
		}
		cell, err := sheet.GetCell(pos)
		if err != nil {
			return err
		}
		if cell == nil {
			fmt.Println()
			return nil
		}
		if fields[0] == "get" {
			fmt.Println(spreadsheet.FormatValue(cell.GetValue()))
		} else {
			fmt.Println(cell.GetText())
		}
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}
