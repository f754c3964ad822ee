package trace

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractUUID(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{"[1] reg eax 10:1", "1", false},
		{"T [42] mem ebx", "42", false},
		{"[7]", "7", false},
		{"prefix[12]suffix", "12", false},
		{"[a] reg eax", "", true},
		{"no id here", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractUUID(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractUUID(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrNoUUID) {
			t.Errorf("ExtractUUID(%q) error = %v, want ErrNoUUID", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("ExtractUUID(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
	}{
		{
			name: "leaf",
			line: "[1] reg eax 10:1 none none none",
			want: Record{UUID: "1", Type: "reg", Name: "eax", StartInd: "10:1"},
		},
		{
			name: "short form",
			line: "[2] mem ebx 20:1 none 1 none",
			want: Record{UUID: "2", Type: "mem", Name: "ebx", StartInd: "20:1", ChildC: []string{"1"}},
		},
		{
			name: "short form child d",
			line: "[3] reg ecx 30:1 31:0 none 4,5",
			want: Record{UUID: "3", Type: "reg", Name: "ecx", StartInd: "30:1", EndInd: "31:0", ChildD: []string{"4", "5"}},
		},
		{
			name: "full form without child d",
			line: "[3] reg ebx 11:1 12:1 mov 1",
			want: Record{UUID: "3", Type: "reg", Name: "ebx", StartInd: "11:1", EndInd: "12:1", EdgeAnn: "mov", ChildC: []string{"1"}},
		},
		{
			name: "short form bracketed ids",
			line: "[7] mem esi 70:1 none [1],[2] -",
			want: Record{UUID: "7", Type: "mem", Name: "esi", StartInd: "70:1", ChildC: []string{"1", "2"}},
		},
		{
			name: "child c",
			line: "[2] mem ebx 20:1 none none 1 none",
			want: Record{UUID: "2", Type: "mem", Name: "ebx", StartInd: "20:1", ChildC: []string{"1"}},
		},
		{
			name: "all columns",
			line: "[3] mem 0x7ffe0010 30:2 31:4 add 1,2 [5]",
			want: Record{
				UUID: "3", Type: "mem", Name: "0x7ffe0010", StartInd: "30:2", EndInd: "31:4",
				EdgeAnn: "add", ChildC: []string{"1", "2"}, ChildD: []string{"5"},
			},
		},
		{
			name: "tag prefix",
			line: "T [4] reg ecx 40:1",
			want: Record{UUID: "4", Type: "reg", Name: "ecx", StartInd: "40:1"},
		},
		{
			name: "dash is none",
			line: "[5] reg edx - - - - 9",
			want: Record{UUID: "5", Type: "reg", Name: "edx", ChildD: []string{"9"}},
		},
		{
			name: "only id",
			line: "[6]",
			want: Record{UUID: "6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if err != nil {
				t.Fatalf("ParseRecord() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRecord() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsChildList(t *testing.T) {
	tests := map[string]bool{
		"none":    true,
		"-":       true,
		"1":       true,
		"1,2,30":  true,
		"[5]":     true,
		"[1],[2]": true,
		"mov":     false,
		"1,":      false,
		"0x10":    false,
		"12:1":    false,
	}
	for in, want := range tests {
		if got := isChildList(in); got != want {
			t.Errorf("isChildList(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRecordNoUUID(t *testing.T) {
	_, err := ParseRecord("reg eax 10:1")
	if !errors.Is(err, ErrNoUUID) {
		t.Errorf("ParseRecord() error = %v, want ErrNoUUID", err)
	}
}

func TestSchemaParseIgnoresShortForm(t *testing.T) {
	got, err := DefaultSchema.Parse("[2] mem ebx 20:1 none 1 none")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got.EdgeAnn != "1" || got.ChildC != nil {
		t.Errorf("Parse() = %+v, want edgeann 1 and no children", got)
	}
}

func TestSchemaCustomOffsets(t *testing.T) {
	s := Schema{Type: 2, Name: 1, StartInd: 3, EndInd: -1, EdgeAnn: -1, ChildC: 4, ChildD: -1}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	got, err := s.Parse("[8] esi reg 5:0 2")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := Record{UUID: "8", Type: "reg", Name: "esi", StartInd: "5:0", ChildC: []string{"2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestSchemaValidate(t *testing.T) {
	for _, s := range []Schema{DefaultSchema, ShortSchema} {
		if err := s.Validate(); err != nil {
			t.Errorf("Validate(%+v) error: %v", s, err)
		}
	}

	dup := DefaultSchema
	dup.ChildD = dup.ChildC
	if err := dup.Validate(); err == nil {
		t.Error("Validate() with shared column = nil, want error")
	}

	onUUID := DefaultSchema
	onUUID.Name = 0
	if err := onUUID.Validate(); err == nil {
		t.Error("Validate() with uuid column = nil, want error")
	}
}

func TestScanLines(t *testing.T) {
	input := "[1] reg eax\r\n\n   \n[2] mem ebx\n"
	var got []string
	var nums []int
	err := ScanLines(strings.NewReader(input), func(n int, line string) error {
		nums = append(nums, n)
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLines() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"[1] reg eax", "[2] mem ebx"}) {
		t.Errorf("lines = %q", got)
	}
	if !reflect.DeepEqual(nums, []int{1, 4}) {
		t.Errorf("line numbers = %v, want [1 4]", nums)
	}

	stop := errors.New("stop")
	calls := 0
	err = ScanLines(strings.NewReader("a\nb\nc\n"), func(int, string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("ScanLines() = %v after %d calls, want stop after 1", err, calls)
	}
}
