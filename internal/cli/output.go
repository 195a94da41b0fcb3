package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Participant:
		o.printParticipant(v)
	case AuthResult:
		o.printAuthResult(v)
	case Challenge:
		o.printChallenge(v)
	case ChallengeList:
		o.printChallengeList(v)
	case Match:
		o.printMatch(v)
	case MatchList:
		o.printMatchList(v)
	case Room:
		o.printRoom(v)
	case Cancellation:
		o.printCancellation(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Participant response type (matches API)
type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
}

// AuthResult is the guest creation response
type AuthResult struct {
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	SessionToken string `json:"session_token"`
}

// Challenge response type
type Challenge struct {
	ID          string `json:"id"`
	CreatorName string `json:"creator_name"`
	Stake       int64  `json:"stake"`
	Own         bool   `json:"own"`
}

// ChallengeList is a list of challenges
type ChallengeList []Challenge

// PlayerSlot response type
type PlayerSlot struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Joined      bool   `json:"joined"`
}

// Match response type
type Match struct {
	ID           string     `json:"id"`
	PlayerA      PlayerSlot `json:"player_a"`
	PlayerB      PlayerSlot `json:"player_b"`
	Stake        int64      `json:"stake"`
	State        string     `json:"state"`
	JoinedCount  int        `json:"joined_count"`
	WinnerUserID string     `json:"winner_user_id"`
	CancelReason string     `json:"cancel_reason"`
}

// MatchSummary response type
type MatchSummary struct {
	ID      string `json:"id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Stake   int64  `json:"stake"`
	State   string `json:"state"`
}

// MatchList is a list of match summaries
type MatchList []MatchSummary

// Room response type
type Room struct {
	MatchID     string   `json:"match_id"`
	Players     []string `json:"players"`
	State       string   `json:"state"`
	JoinedCount int      `json:"joined_count"`
}

// Cancellation response type
type Cancellation struct {
	ID               string `json:"id"`
	MatchID          string `json:"match_id"`
	RequestingUserID string `json:"requesting_user_id"`
	Reason           string `json:"reason"`
	Status           string `json:"status"`
}

// HealthResult is the health check response
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printParticipant(p Participant) {
	fmt.Printf("User:    %s\n", p.UserID)
	fmt.Printf("Name:    %s\n", p.DisplayName)
	fmt.Printf("Balance: %d\n", p.Balance)
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Printf("User: %s (%s)\n", a.DisplayName, a.UserID)
	fmt.Println("Session token saved")
}

func (o *Output) printChallenge(c Challenge) {
	own := ""
	if c.Own {
		own = " (yours)"
	}
	fmt.Printf("%s  %s  stake=%d%s\n", c.ID, c.CreatorName, c.Stake, own)
}

func (o *Output) printChallengeList(list ChallengeList) {
	if len(list) == 0 {
		fmt.Println("No open challenges")
		return
	}
	for _, c := range list {
		o.printChallenge(c)
	}
}

func (o *Output) printMatch(m Match) {
	fmt.Printf("Match:  %s\n", m.ID)
	fmt.Printf("Stake:  %d\n", m.Stake)
	fmt.Printf("State:  %s\n", m.State)
	fmt.Printf("Player: %s (joined=%t)\n", m.PlayerA.DisplayName, m.PlayerA.Joined)
	fmt.Printf("Player: %s (joined=%t)\n", m.PlayerB.DisplayName, m.PlayerB.Joined)
	if m.WinnerUserID != "" {
		fmt.Printf("Winner: %s\n", m.WinnerUserID)
	}
	if m.CancelReason != "" {
		fmt.Printf("Cancelled: %s\n", m.CancelReason)
	}
}

func (o *Output) printMatchList(list MatchList) {
	if len(list) == 0 {
		fmt.Println("No active matches")
		return
	}
	for _, m := range list {
		fmt.Printf("%s  %s vs %s  stake=%d  %s\n", m.ID, m.PlayerA, m.PlayerB, m.Stake, m.State)
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room:    %s\n", r.MatchID)
	fmt.Printf("State:   %s\n", r.State)
	fmt.Printf("Players: %s\n", strings.Join(r.Players, ", "))
	fmt.Printf("Joined:  %d/2\n", r.JoinedCount)
}

func (o *Output) printCancellation(c Cancellation) {
	fmt.Printf("Request: %s\n", c.ID)
	fmt.Printf("Match:   %s\n", c.MatchID)
	fmt.Printf("By:      %s\n", c.RequestingUserID)
	if c.Reason != "" {
		fmt.Printf("Reason:  %s\n", c.Reason)
	}
	fmt.Printf("Status:  %s\n", c.Status)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
