package okta

import "testing"

func TestNextCursor(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantCursor string
		wantOK     bool
	}{
		{
			name:       "ссылка next с after",
			header:     `<https://x/api/v1/users?after=ABC123&limit=2>; rel="next"`,
			wantCursor: "ABC123",
			wantOK:     true,
		},
		{
			name:   "только self",
			header: `<https://x/api/v1/users?limit=2>; rel="self"`,
		},
		{
			name:   "пустой заголовок",
			header: "",
		},
		{
			name:       "URL-кодированный курсор",
			header:     `<https://x/api/v1/users?after=A%2FB>; rel="next"`,
			wantCursor: "A/B",
			wantOK:     true,
		},
		{
			name:       "self с after перед next",
			header:     `<https://x/api/v1/users?after=OLD&limit=2>; rel="self", <https://x/api/v1/users?after=NEW&limit=2>; rel="next"`,
			wantCursor: "NEW",
			wantOK:     true,
		},
		{
			name:       "after не первый параметр",
			header:     `<https://x/api/v1/users?limit=2&after=00u9>; rel="next"`,
			wantCursor: "00u9",
			wantOK:     true,
		},
		{
			name:   "next без after",
			header: `<https://x/api/v1/users?limit=2>; rel="next"`,
		},
		{
			name:       "некорректная percent-последовательность",
			header:     `<https://x/api/v1/users?after=A%ZZ>; rel="next"`,
			wantCursor: "A%ZZ",
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, ok := NextCursor(tt.header)
			if ok != tt.wantOK || cursor != tt.wantCursor {
				t.Errorf("NextCursor(%q) = %q, %v; ожидается %q, %v",
					tt.header, cursor, ok, tt.wantCursor, tt.wantOK)
			}
		})
	}
}

func TestHasNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: `<https://x/users?after=A>; rel="next"`, want: true},
		{header: `<https://x/users?limit=2>; rel="next"`, want: true},
		{header: `<https://x/users>; rel="self"`, want: false},
		{header: "", want: false},
	}

	for _, tt := range tests {
		if got := HasNextLink(tt.header); got != tt.want {
			t.Errorf("HasNextLink(%q) = %v, ожидается %v", tt.header, got, tt.want)
		}
	}
}
