package idmetrics

import (
	"strings"
	"testing"
)

// overlapSequence builds a sequence where one gt and one tracker identity are
// both present in numFrames frames, with similarity above threshold in the
// first numMatched of them.
func overlapSequence(numFrames, numMatched int) *SequenceData {
	frames := make([]Frame, numFrames)
	for t := range frames {
		similarity := 0.1
		if t < numMatched {
			similarity = 0.9
		}
		frames[t] = Frame{
			GtIDs:      []int{0},
			TrackerIDs: []int{0},
			Similarity: [][]float64{{similarity}},
		}
	}
	return &SequenceData{
		NumGtIDs:       1,
		NumTrackerIDs:  1,
		NumGtDets:      numFrames,
		NumTrackerDets: numFrames,
		Frames:         frames,
	}
}

func TestTrackIdentityPerfectOverlap(t *testing.T) {
	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tid.EvalSequence(overlapSequence(3, 3))
	if err != nil {
		t.Fatal(err)
	}
	if res.IDTP != 1 || res.IDFN != 0 || res.IDFP != 0 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 1/0/0", res.IDTP, res.IDFN, res.IDFP)
	}
	if !almostEqual(res.IDF1, 1) || !almostEqual(res.IDR, 1) || !almostEqual(res.IDP, 1) {
		t.Errorf("incorrect ratios: IDF1=%f IDR=%f IDP=%f, expected all 1", res.IDF1, res.IDR, res.IDP)
	}
}

func TestTrackIdentityBoundaryOverlapRejected(t *testing.T) {
	// Overlap ratio is exactly TRACK_IOU_THRESH (1 matched frame out of 5,
	// threshold 0.2): the pair must be rejected and count as both a missed
	// gt track and a false tracker track.
	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tid.EvalSequence(overlapSequence(5, 1))
	if err != nil {
		t.Fatal(err)
	}
	if res.IDTP != 0 || res.IDFN != 1 || res.IDFP != 1 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 0/1/1", res.IDTP, res.IDFN, res.IDFP)
	}
	if !almostEqual(res.IDF1, 0) {
		t.Errorf("IDF1 = %f, expected 0", res.IDF1)
	}
}

func TestTrackIdentityAboveBoundaryAccepted(t *testing.T) {
	// 2 matched frames out of 5 puts the overlap ratio at 0.4, above the
	// default 0.2 threshold.
	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tid.EvalSequence(overlapSequence(5, 2))
	if err != nil {
		t.Fatal(err)
	}
	if res.IDTP != 1 || res.IDFN != 0 || res.IDFP != 0 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 1/0/0", res.IDTP, res.IDFN, res.IDFP)
	}
}

func TestTrackIdentityExtraTrackerTrack(t *testing.T) {
	// gt0 and tracker0 overlap in all 4 frames; tracker1 exists for 2 frames
	// and never overlaps anything, so it must go to its sink as a false track.
	frames := make([]Frame, 4)
	for t2 := range frames {
		if t2 < 2 {
			frames[t2] = Frame{
				GtIDs:      []int{0},
				TrackerIDs: []int{0, 1},
				Similarity: [][]float64{{0.9, 0.1}},
			}
		} else {
			frames[t2] = Frame{
				GtIDs:      []int{0},
				TrackerIDs: []int{0},
				Similarity: [][]float64{{0.9}},
			}
		}
	}
	data := &SequenceData{
		NumGtIDs:       1,
		NumTrackerIDs:  2,
		NumGtDets:      4,
		NumTrackerDets: 6,
		Frames:         frames,
	}

	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := tid.EvalSequence(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.IDTP != 1 || res.IDFN != 0 || res.IDFP != 1 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 1/0/1", res.IDTP, res.IDFN, res.IDFP)
	}
	if !almostEqual(res.IDR, 1) {
		t.Errorf("IDR = %f, expected 1", res.IDR)
	}
	if !almostEqual(res.IDP, 0.5) {
		t.Errorf("IDP = %f, expected 0.5", res.IDP)
	}
	if !almostEqual(res.IDF1, 1.0/1.5) {
		t.Errorf("IDF1 = %f, expected %f", res.IDF1, 1.0/1.5)
	}
}

func TestTrackIdentityEmptyShortcuts(t *testing.T) {
	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Empty shortcuts count whole tracks and deliberately skip the ratio
	// derivation, so the float fields stay zero.
	res, err := tid.EvalSequence(&SequenceData{NumGtIDs: 2, NumGtDets: 7})
	if err != nil {
		t.Fatal(err)
	}
	if res.IDFN != 2 || res.IDTP != 0 || res.IDFP != 0 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 0/2/0", res.IDTP, res.IDFN, res.IDFP)
	}
	if res.IDP != 0 || res.IDR != 0 || res.IDF1 != 0 {
		t.Errorf("ratios should stay zero on the empty shortcut: IDP=%f IDR=%f IDF1=%f", res.IDP, res.IDR, res.IDF1)
	}

	res, err = tid.EvalSequence(&SequenceData{NumTrackerIDs: 3, NumTrackerDets: 9})
	if err != nil {
		t.Fatal(err)
	}
	if res.IDFP != 3 || res.IDTP != 0 || res.IDFN != 0 {
		t.Errorf("incorrect counts: IDTP=%d IDFN=%d IDFP=%d, expected 0/0/3", res.IDTP, res.IDFN, res.IDFP)
	}
}

func TestTrackIdentityCombineSequences(t *testing.T) {
	tid, err := NewTrackIdentity(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a := computeFinalFields(Result{IDTP: 1, IDFN: 1, IDFP: 0})
	b := computeFinalFields(Result{IDTP: 2, IDFN: 0, IDFP: 2})
	perSequence := map[string]Result{"seq-01": a, "seq-02": b}

	micro, err := tid.CombineSequences(perSequence, AverageMicro)
	if err != nil {
		t.Fatal(err)
	}
	if micro.IDTP != 3 || micro.IDFN != 1 || micro.IDFP != 2 {
		t.Errorf("incorrect micro counts: IDTP=%d IDFN=%d IDFP=%d", micro.IDTP, micro.IDFN, micro.IDFP)
	}
	expectedMicro := computeFinalFields(Result{IDTP: 3, IDFN: 1, IDFP: 2})
	if !almostEqual(micro.IDF1, expectedMicro.IDF1) || !almostEqual(micro.IDR, expectedMicro.IDR) || !almostEqual(micro.IDP, expectedMicro.IDP) {
		t.Errorf("micro ratios not derived from summed counts: IDF1=%f IDR=%f IDP=%f", micro.IDF1, micro.IDR, micro.IDP)
	}

	macro, err := tid.CombineSequences(perSequence, AverageMacro)
	if err != nil {
		t.Fatal(err)
	}
	if macro.IDTP != 3 || macro.IDFN != 1 || macro.IDFP != 2 {
		t.Errorf("incorrect macro counts: IDTP=%d IDFN=%d IDFP=%d", macro.IDTP, macro.IDFN, macro.IDFP)
	}
	if !almostEqual(macro.IDF1, (a.IDF1+b.IDF1)/2) || !almostEqual(macro.IDR, (a.IDR+b.IDR)/2) || !almostEqual(macro.IDP, (a.IDP+b.IDP)/2) {
		t.Errorf("macro ratios are not per-sequence means: IDF1=%f IDR=%f IDP=%f", macro.IDF1, macro.IDR, macro.IDP)
	}

	if _, err := tid.CombineSequences(perSequence, "weighted"); err == nil {
		t.Error("expected error for unknown average mode")
	} else if !strings.Contains(err.Error(), "unexpected average value") {
		t.Errorf("unexpected error message: %v", err)
	}
}
