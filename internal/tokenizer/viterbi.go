package tokenizer

import "sync"

// viterbiScratch holds the reusable work arrays for one Viterbi decode
// call. Per §4.2/§5, the tokenizer hot path reuses per-call scratch
// buffers instead of allocating fresh slices on every call; Go has no
// thread-local storage, so a sync.Pool plays that role — buffers are
// checked out for the duration of one decode and returned afterward.
type viterbiScratch struct {
	score []float64
	back  []backPointer
}

type backPointer struct {
	start   int
	id      int
	surface string
	set     bool
}

var scratchPool = sync.Pool{
	New: func() interface{} { return &viterbiScratch{} },
}

func getScratch(n int) *viterbiScratch {
	s := scratchPool.Get().(*viterbiScratch)
	if cap(s.score) < n+1 {
		s.score = make([]float64, n+1)
		s.back = make([]backPointer, n+1)
	} else {
		s.score = s.score[:n+1]
		s.back = s.back[:n+1]
	}
	for i := range s.score {
		s.score[i] = negInf
		s.back[i] = backPointer{}
	}
	return s
}

func putScratch(s *viterbiScratch) { scratchPool.Put(s) }

const negInf = -1e18

// viterbi runs the classical SentencePiece unigram Viterbi decode over the
// normalized rune sequence runes, per §4.2's algorithm description.
func (t *Tokenizer) viterbi(runes []rune) []Piece {
	n := len(runes)
	if n == 0 {
		return nil
	}

	s := getScratch(n)
	defer putScratch(s)

	s.score[0] = 0

	for i := 0; i < n; i++ {
		if s.score[i] == negInf {
			continue
		}
		found := false
		maxLen := t.maxTokenLen
		if maxLen > n-i {
			maxLen = n - i
		}
		for length := 1; length <= maxLen; length++ {
			surface := string(runes[i : i+length])
			id, ok := t.bySurface[surface]
			if !ok {
				continue
			}
			found = true
			cand := s.score[i] + t.pieces[id].Score
			j := i + length
			if cand > s.score[j] {
				s.score[j] = cand
				s.back[j] = backPointer{start: i, id: id, surface: surface, set: true}
			}
		}
		if !found {
			// No vocabulary entry starts at i: force a one-character
			// [UNK] candidate so the lattice always makes progress.
			surface := string(runes[i])
			j := i + 1
			cand := s.score[i] + t.pieces[t.unkID].Score
			if cand > s.score[j] {
				s.score[j] = cand
				s.back[j] = backPointer{start: i, id: t.unkID, surface: surface, set: true}
			}
		}
	}

	var pieces []Piece
	j := n
	for j > 0 {
		bp := s.back[j]
		if !bp.set {
			// Defensive fallback per §4.2: a position with no
			// back-pointer still emits a one-character [UNK].
			r := runes[j-1]
			pieces = append(pieces, Piece{ID: t.unkID, Surface: string(r), Score: t.pieces[t.unkID].Score})
			j--
			continue
		}
		pieces = append(pieces, Piece{ID: bp.id, Surface: bp.surface, Score: t.pieces[bp.id].Score})
		j = bp.start
	}

	// Reverse in place.
	for i, k := 0, len(pieces)-1; i < k; i, k = i+1, k-1 {
		pieces[i], pieces[k] = pieces[k], pieces[i]
	}
	return pieces
}
