package topic

import "news_digest/internal/model"

// emptyCounts returns a zero-initialized count map covering the full taxonomy.
func emptyCounts() map[model.Topic]int {
	counts := make(map[model.Topic]int, len(model.Topics))
	for _, t := range model.Topics {
		counts[t] = 0
	}
	return counts
}

// SummarizeByDay reduces one day's articles and classifications into per-topic
// counts. Every topic in the taxonomy is present, zero-filled; articles with
// no classification entry are counted via the heuristic so Total always equals
// the sum of ByTopic values.
func SummarizeByDay(date string, articles []model.Article, classifications []model.TopicClassification) model.TopicStatsDay {
	byID := make(map[string]model.Topic, len(classifications))
	for _, c := range classifications {
		byID[c.ArticleID] = c.Topic
	}

	counts := emptyCounts()
	for _, a := range articles {
		topic, ok := byID[a.ID]
		if !ok {
			topic = HeuristicTopic(a)
		}
		counts[topic]++
	}

	return model.TopicStatsDay{
		Date:    date,
		Total:   len(articles),
		ByTopic: counts,
	}
}
