package main

import (
	"testing"

	"github.com/Zuo-Peng/axel-dashboard/internal/config"
)

func TestSplitNoteArgs(t *testing.T) {
	tests := []struct {
		args         []string
		wantCategory string
		wantName     string
		wantOK       bool
	}{
		{[]string{"solutions", "retry"}, "solutions", "retry", true},
		{[]string{"advisors/security"}, "advisors", "security", true},
		{[]string{"inventory/INVENTORY"}, "inventory", "INVENTORY", true},
		{[]string{"solutions"}, "", "", false},
		{[]string{"/retry"}, "", "retry", false},
		{[]string{"solutions", ""}, "solutions", "", false},
	}
	for _, tt := range tests {
		c, n, ok := splitNoteArgs(tt.args)
		if ok != tt.wantOK || (ok && (c != tt.wantCategory || n != tt.wantName)) {
			t.Errorf("splitNoteArgs(%q) = %q, %q, %v", tt.args, c, n, ok)
		}
	}
}

func TestLocalServer(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"0.0.0.0", "http://localhost:3847"},
		{"", "http://localhost:3847"},
		{"10.0.0.5", "http://10.0.0.5:3847"},
	}
	for _, tt := range tests {
		cfg := &config.Config{Host: tt.host, Port: 3847}
		if got := localServer(cfg); got != tt.want {
			t.Errorf("localServer(%q) = %s, want %s", tt.host, got, tt.want)
		}
	}
}

func TestColorizeSnippet_Plain(t *testing.T) {
	if got := colorizeSnippet("use >>>backoff<<< here", false); got != "use backoff here" {
		t.Errorf("colorizeSnippet = %q", got)
	}
}
