package runtime

import (
	"fmt"
	"mcserve/domain"
	"mcserve/domain/event"
)

// CommandHandler runs with the Engine lock held.
type CommandHandler func(tx *Tx, cmd domain.AdminCommand)

// CommandTable maps a normalised command name to its handler.
type CommandTable map[string]CommandHandler

func DefaultCommands() CommandTable {
	return CommandTable{
		"restart": restartCommand,
	}
}

// restartCommand asks for a restart once everybody has logged off.
func restartCommand(tx *Tx, cmd domain.AdminCommand) {
	if !tx.Coordinator().Request(cmd.Issuer) {
		tx.Send(fmt.Sprintf("tell %s restart is already requested", cmd.Issuer))
		return
	}
	tx.Send(fmt.Sprintf("say %s has requested a server restart once everyone logs off", cmd.Issuer))
	tx.Append(event.NewRestartRequested(cmd.Issuer, tx.At()))
}
