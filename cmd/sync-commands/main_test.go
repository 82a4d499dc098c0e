package main

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPickAction(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"default", nil, "sync", false},
		{"list", []string{"list"}, "list", false},
		{"clean", []string{"clean"}, "clean", false},
		{"unknown", []string{"purge"}, "", true},
		{"too many", []string{"list", "clean"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, run, err := pickAction(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pickAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("pickAction() = %q, want %q", got, tt.want)
			}
			if !tt.wantErr && run == nil {
				t.Error("pickAction() returned a nil action")
			}
		})
	}
}

func TestCommandPaths(t *testing.T) {
	cmds := []*discordgo.ApplicationCommand{
		{Name: "mod", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "warn"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "ban"},
		}},
		{Name: "ping", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "texto"},
		}},
	}

	want := []string{"/mod ban", "/mod warn", "/ping"}
	if got := commandPaths(cmds); !reflect.DeepEqual(got, want) {
		t.Errorf("commandPaths() = %v, want %v", got, want)
	}
	if got := commandPaths(nil); len(got) != 0 {
		t.Errorf("commandPaths(nil) = %v, want empty", got)
	}
}

func TestTargetString(t *testing.T) {
	if got := target("").String(); got != "global" {
		t.Errorf("String() = %q, want %q", got, "global")
	}
	if got := target("42").String(); got != "servidor 42" {
		t.Errorf("String() = %q, want %q", got, "servidor 42")
	}
}
