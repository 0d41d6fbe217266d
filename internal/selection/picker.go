package selection

import "trivia-session-engine/internal/domain"

// picker accumulates a phase selection while enforcing the topic cap and the
// consecutive same-topic limit.
type picker struct {
	topicCap       int
	maxConsecutive int
	target         int

	selected   []domain.Question
	chosen     map[string]bool
	topicCount map[string]int
	lastTopic  string
	run        int
}

func newPicker(config Config, target int) *picker {
	return &picker{
		topicCap:       config.TopicCap,
		maxConsecutive: config.MaxConsecutive,
		target:         target,
		chosen:         make(map[string]bool, target),
		topicCount:     make(map[string]int),
	}
}

func (p *picker) missing() int {
	return p.target - len(p.selected)
}

// pick takes up to n candidates in order. Each pick rescans from the top so a candidate
// skipped for the consecutive rule becomes eligible again after another topic is taken.
func (p *picker) pick(candidates []WeightedQuestion, n int, relaxed bool) int {
	n = min(n, p.missing())
	picked := 0
	for picked < n {
		idx := -1
		for i, wq := range candidates {
			if p.chosen[wq.Question.ID] {
				continue
			}
			if relaxed || p.eligible(wq.Question.Topic) {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		p.add(candidates[idx].Question)
		picked++
	}
	return picked
}

func (p *picker) eligible(topic string) bool {
	if p.topicCap > 0 && p.topicCount[topic] >= p.topicCap {
		return false
	}
	if p.maxConsecutive > 0 && topic == p.lastTopic && p.run >= p.maxConsecutive {
		return false
	}
	return true
}

func (p *picker) add(q domain.Question) {
	p.selected = append(p.selected, q)
	p.chosen[q.ID] = true
	p.topicCount[q.Topic]++
	if q.Topic == p.lastTopic {
		p.run++
	} else {
		p.lastTopic = q.Topic
		p.run = 1
	}
}

func (p *picker) questions() []domain.Question {
	return append([]domain.Question(nil), p.selected...)
}
