package youtube

import "testing"

func TestParseChannelURL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
		isID   bool
	}{
		{"channel id url", "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw", "UCuAXFkgsw1L7xaCfnd5JJOw", true, true},
		{"handle url", "https://youtube.com/@LinusTechTips", "LinusTechTips", true, false},
		{"handle with path", "https://www.youtube.com/@veritasium/streams", "veritasium", true, false},
		{"custom url", "https://www.youtube.com/c/Computerphile", "Computerphile", true, false},
		{"legacy user url", "https://www.youtube.com/user/numberphile", "numberphile", true, false},
		{"video url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", false, false},
		{"not youtube", "https://example.com/@someone", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseChannelURL(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ParseChannelURL(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
			if ok && IsChannelID(got) != tt.isID {
				t.Errorf("IsChannelID(%q) = %v, want %v", got, !tt.isID, tt.isID)
			}
		})
	}
}
