package name

import "testing"

func TestFindTagPos(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"foo.bar", -1},
		{"foo.bar;a=b", 7},
		{";a=b", 0},
		{"foo;", 3},
		{"", -1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := FindTagPos([]byte(tt.raw), TagFormatGraphite); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMetricName(t *testing.T) {
	n := New([]byte("foo.bar;host=a;dc=b"), TagFormatGraphite)

	if string(n.Base()) != "foo.bar" {
		t.Errorf("expected base foo.bar, got %q", n.Base())
	}
	if string(n.Tags()) != "host=a;dc=b" {
		t.Errorf("expected tags host=a;dc=b, got %q", n.Tags())
	}
	if pos, ok := n.TagPos(); !ok || pos != 7 {
		t.Errorf("expected tag position 7, got %d (%v)", pos, ok)
	}
	if n.String() != "foo.bar;host=a;dc=b" {
		t.Errorf("unexpected string %q", n.String())
	}
}

func TestMetricNameUntagged(t *testing.T) {
	n := New([]byte("foo.bar"), TagFormatGraphite)

	if string(n.Base()) != "foo.bar" {
		t.Errorf("expected base foo.bar, got %q", n.Base())
	}
	if n.Tags() != nil {
		t.Errorf("expected nil tags, got %q", n.Tags())
	}
	if _, ok := n.TagPos(); ok {
		t.Error("untagged name reports a tag position")
	}
}

func TestFromRawPartsBounds(t *testing.T) {
	// An out-of-range position means untagged.
	n := FromRawParts([]byte("abc"), 10)
	if _, ok := n.TagPos(); ok {
		t.Error("out-of-range tag position was kept")
	}
	if string(n.Base()) != "abc" {
		t.Errorf("expected base abc, got %q", n.Base())
	}
}
