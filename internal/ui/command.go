package ui

import (
	"errors"
	"strings"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdCreate
	cmdJoin
	cmdLeave
	cmdStart
	cmdQuit
	cmdSubmit
)

type command struct {
	kind commandKind
	arg  string
}

var (
	errMissingRoomID  = errors.New("用法: /join <房间号>")
	errUnknownCommand = errors.New("未知命令，可用: /create /join /leave /start /quit")
)

// parseCommand turns one input line into a command. Lines that do not start
// with a slash are submissions.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdSubmit, arg: line}, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/create":
		return command{kind: cmdCreate}, nil
	case "/join":
		if arg == "" {
			return command{}, errMissingRoomID
		}
		return command{kind: cmdJoin, arg: arg}, nil
	case "/leave":
		return command{kind: cmdLeave}, nil
	case "/start":
		return command{kind: cmdStart}, nil
	case "/quit", "/exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, errUnknownCommand
	}
}
