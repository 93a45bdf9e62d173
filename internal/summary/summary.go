// Package summary 把单文件记录归并为语言汇总、占比统计和大文件排名。
// 这里的函数都是纯计算，输出顺序固定，不依赖输入顺序。
package summary

import (
	"math"

	"codestat/internal/languages"
	"codestat/internal/model"
)

// Summarize 按语言分组汇总记录，并计算每种语言的行数占比。
//
// 返回的汇总列表按 languages.CanonicalOrder 排列：
// 文件数为 0 的语言被省略，最后一项总是 All（即使没有任何记录）。
// All 总行数为 0 时统计列表为空，避免除零。
func Summarize(records []model.FileRecord) ([]model.LanguageSummary, []model.Statistic) {
	byLanguage := make(map[languages.Tag]*model.LanguageSummary)
	all := model.LanguageSummary{Language: languages.All}

	for _, record := range records {
		all.AddRecord(record)

		tag := record.Language
		if tag == languages.All {
			// All 是合成标签，真实记录不应携带，按未识别处理。
			tag = languages.Unrecognized
		}
		item, ok := byLanguage[tag]
		if !ok {
			item = &model.LanguageSummary{Language: tag}
			byLanguage[tag] = item
		}
		item.AddRecord(record)
	}

	summaries := make([]model.LanguageSummary, 0, len(byLanguage)+1)
	for _, tag := range languages.CanonicalOrder() {
		if tag == languages.All {
			continue
		}
		if item, ok := byLanguage[tag]; ok && item.Files > 0 {
			summaries = append(summaries, *item)
		}
	}
	summaries = append(summaries, all)

	return summaries, Statistics(summaries)
}

// Statistics 从汇总列表派生占比统计。
// 只有真实语言参与计算；缺少 All 或 All 总行数为 0 时返回空列表。
func Statistics(summaries []model.LanguageSummary) []model.Statistic {
	var all *model.LanguageSummary
	for i := range summaries {
		if summaries[i].Language == languages.All {
			all = &summaries[i]
			break
		}
	}
	if all == nil || all.LineCount() <= 0 {
		return []model.Statistic{}
	}

	statistics := make([]model.Statistic, 0, len(summaries))
	for _, item := range summaries {
		if !item.Language.IsConcrete() || item.Files == 0 {
			continue
		}
		statistics = append(statistics, model.Statistic{
			Language:     item.Language,
			Percentage:   ratio1(item.LineCount()*100, all.LineCount()),
			AverageLines: ratio1(item.LineCount(), item.Files),
		})
	}
	return statistics
}

// ratio1 返回 numerator/denominator 保留一位小数的结果，.5 远离零。
// 分子先放大 10 倍，只做一次除法，精确的半值（如 28.75）才能稳定进位。
func ratio1(numerator int64, denominator int64) float64 {
	return math.Round(float64(numerator*10)/float64(denominator)) / 10
}
