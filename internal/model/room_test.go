package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreeColor(t *testing.T) {
	tests := []struct {
		name   string
		slots  map[Color]Slot
		want   Color
		wantOK bool
	}{
		{name: "empty room", slots: map[Color]Slot{}, want: ColorOrange, wantOK: true},
		{name: "orange taken", slots: map[Color]Slot{ColorOrange: {Conn: "a"}}, want: ColorBlue, wantOK: true},
		{name: "skips seat held for owner", slots: map[Color]Slot{ColorOrange: {UserID: 7}}, want: ColorBlue, wantOK: true},
		{name: "held seat as last resort", slots: map[Color]Slot{ColorOrange: {UserID: 7}, ColorBlue: {Conn: "b"}}, want: ColorOrange, wantOK: true},
		{name: "full", slots: map[Color]Slot{ColorOrange: {Conn: "a"}, ColorBlue: {Conn: "b"}}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := NewRoom("ABC234", "test", time.Now())
			room.Slots = tt.slots
			got, ok := room.FreeColor()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
