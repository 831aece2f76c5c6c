package storeutil

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		limit, page       int64
		wantLim, wantSkip int64
	}{
		{10, 1, 10, 0},
		{10, 3, 10, 20},
		{0, 0, 10, 0},
		{500, 2, MaxLimit, MaxLimit},
	}
	for _, tt := range tests {
		opts := Paginate(tt.limit, tt.page)
		if *opts.Limit != tt.wantLim || *opts.Skip != tt.wantSkip {
			t.Errorf("Paginate(%d, %d) = limit %d skip %d, want %d/%d",
				tt.limit, tt.page, *opts.Limit, *opts.Skip, tt.wantLim, tt.wantSkip)
		}
	}
}

func TestParsePageAndTotalPages(t *testing.T) {
	page, limit := ParsePage("3", "5")
	if page != 3 || limit != 5 {
		t.Errorf("ParsePage = %d, %d", page, limit)
	}
	page, limit = ParsePage("abc", "")
	if page != 1 || limit != 10 {
		t.Errorf("ParsePage defaults = %d, %d", page, limit)
	}
	if TotalPages(21, 10) != 3 || TotalPages(0, 10) != 0 || TotalPages(5, 0) != 0 {
		t.Error("TotalPages gave wrong results")
	}
}
