package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/dkeye/Ludo/internal/rules"
	"github.com/fatih/color"
)

var colourNames = [rules.MaxColours]string{"green", "blue", "yellow", "red"}

// Display renders server messages for a human.
type Display struct {
	out io.Writer

	serverColor  *color.Color
	warningColor *color.Color
	errorColor   *color.Color
	winColor     *color.Color
	playerColors [rules.MaxColours]*color.Color

	me int
}

func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:          out,
		serverColor:  color.New(color.FgCyan, color.Bold),
		warningColor: color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		winColor:     color.New(color.FgGreen, color.Bold, color.BgBlack),
		playerColors: [rules.MaxColours]*color.Color{
			color.New(color.FgGreen),
			color.New(color.FgBlue),
			color.New(color.FgYellow),
			color.New(color.FgRed),
		},
		me: -1,
	}
}

func (d *Display) player(id int) string {
	if id < 0 || id >= rules.MaxColours {
		return fmt.Sprintf("Player %d", id+1)
	}
	label := fmt.Sprintf("Player %d (%s)", id+1, colourNames[id])
	if id == d.me {
		label += " [you]"
	}
	return d.playerColors[id].Sprint(label)
}

// Render prints one raw server frame.
func (d *Display) Render(frame []byte) error {
	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	switch env.Type {
	case protocol.TypeRoomCreated:
		var p protocol.RoomCreated
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.me = p.PlayerID
		d.serverColor.Fprintf(d.out, "Room %s created for %d players. Share the code.\n", p.RoomID, p.MaxPlayers)
	case protocol.TypeJoinedRoom:
		var p protocol.JoinedRoom
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.me = p.PlayerID
		d.serverColor.Fprintf(d.out, "Joined room %s as %s (%d/%d).\n", p.RoomID, d.player(p.PlayerID), p.CurrentPlayers, p.MaxPlayers)
	case protocol.TypePlayerJoined:
		var p protocol.PlayerJoined
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s joined (%d/%d).\n", d.player(p.PlayerID), p.CurrentPlayers, p.MaxPlayers)
	case protocol.TypePlayerLeft:
		var p protocol.PlayerLeft
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.warningColor.Fprintf(d.out, "Player %d left (%d/%d).\n", p.PlayerID+1, p.CurrentPlayers, p.MaxPlayers)
	case protocol.TypeGameState:
		var p protocol.GameState
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.renderState(p)
	case protocol.TypeYourTurn:
		var p protocol.YourTurn
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		if p.PlayerID == d.me {
			d.serverColor.Fprintln(d.out, "Your turn: roll")
		} else {
			fmt.Fprintf(d.out, "%s to play.\n", d.player(p.PlayerID))
		}
	case protocol.TypeMoveInvalid:
		var p protocol.MoveInvalid
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.warningColor.Fprintf(d.out, "Rejected: %s\n", p.Reason)
	case protocol.TypeGameOver:
		var p protocol.GameOver
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.winColor.Fprintf(d.out, "Game over, %s wins!\n", d.player(p.WinnerID))
	case protocol.TypeError:
		var p protocol.Error
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		d.errorColor.Fprintf(d.out, "Error: %s\n", p.Message)
	default:
		fmt.Fprintf(d.out, "%s %s\n", env.Type, env.Payload)
	}
	return nil
}

func (d *Display) renderState(st protocol.GameState) {
	if !st.GameStarted {
		fmt.Fprintf(d.out, "Room %s waiting for %d players.\n", st.RoomID, st.RequiredPlayers)
		return
	}
	if st.DiceValue != nil {
		fmt.Fprintf(d.out, "%s rolled %d.", d.player(st.Turn), *st.DiceValue)
		if st.Turn == d.me {
			if len(st.MovablePieces) == 0 {
				fmt.Fprint(d.out, " No move.")
			} else {
				fmt.Fprintf(d.out, " Movable: %s", joinInts(st.MovablePieces))
			}
		}
		fmt.Fprintln(d.out)
		return
	}
	for owner, pieces := range st.PlayersPieces {
		var b strings.Builder
		for _, p := range pieces {
			switch {
			case p.Finished:
				b.WriteString(" home")
			case p.InBase():
				b.WriteString(" base")
			default:
				fmt.Fprintf(&b, " %d", p.PathIndex)
			}
		}
		fmt.Fprintf(d.out, "  %s:%s\n", d.player(owner), b.String())
	}
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
