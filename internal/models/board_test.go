package models

import "testing"

func TestBoardSnapshotCounts(t *testing.T) {
	s := &BoardSnapshot{
		Placed:  []OrderView{{}, {}},
		Cooking: []OrderView{{}},
		Paid:    []OrderView{{}, {}, {}},
	}
	counts := s.Counts()
	if counts[StatusPlaced] != 2 || counts[StatusCooking] != 1 || counts[StatusServed] != 0 || counts[StatusPaid] != 3 {
		t.Errorf("counts = %v", counts)
	}
}
