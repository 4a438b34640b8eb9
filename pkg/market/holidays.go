package market

// builtinHolidays 内置节假日表（交易所休市的工作日，周末不列入）。
// A股按交易所历年放假安排维护；港股仅维护主要公众假期。
var builtinHolidays = map[Market][]string{
	MarketChinaA: {
		// 2023
		"20230102",                                                 // 元旦补休
		"20230123", "20230124", "20230125", "20230126", "20230127", // 春节
		"20230405",                         // 清明
		"20230501", "20230502", "20230503", // 劳动节
		"20230622", "20230623", // 端午
		"20230929",                                                 // 中秋
		"20231002", "20231003", "20231004", "20231005", "20231006", // 国庆
		// 2024
		"20240101",                                                             // 元旦
		"20240209", "20240212", "20240213", "20240214", "20240215", "20240216", // 春节
		"20240404", "20240405", // 清明
		"20240501", "20240502", "20240503", // 劳动节
		"20240610",             // 端午
		"20240916", "20240917", // 中秋
		"20241001", "20241002", "20241003", "20241004", "20241007", // 国庆
		// 2025
		"20250101",                                                             // 元旦
		"20250128", "20250129", "20250130", "20250131", "20250203", "20250204", // 春节
		"20250404",                         // 清明
		"20250501", "20250502", "20250505", // 劳动节
		"20250602",                                                 // 端午
		"20251001", "20251002", "20251003", "20251006", "20251007", "20251008", // 国庆、中秋
		// 2026
		"20260101", "20260102", // 元旦
		"20260216", "20260217", "20260218", "20260219", "20260220", // 春节
		"20260406",             // 清明补休
		"20260501", "20260504", "20260505", // 劳动节
		"20260619",             // 端午
		"20260925",             // 中秋
		"20261001", "20261002", "20261005", "20261006", "20261007", // 国庆
	},
	MarketHongKong: {
		// 2024
		"20240101",
		"20240212", "20240213", // 农历新年
		"20240329", "20240401", // 复活节
		"20240404", // 清明
		"20240501",
		"20240515", // 佛诞
		"20240610", // 端午
		"20240701", // 回归纪念日
		"20240918", // 中秋翌日
		"20241001",
		"20241011", // 重阳
		"20241225", "20241226", // 圣诞
		// 2025
		"20250101",
		"20250129", "20250130", "20250131", // 农历新年
		"20250404",             // 清明
		"20250418", "20250421", // 复活节
		"20250501",
		"20250505", // 佛诞
		"20250701",
		"20251007", // 中秋翌日
		"20251029", // 重阳
		"20251225", "20251226", // 圣诞
		// 2026
		"20260101",
		"20260217", "20260218", "20260219", // 农历新年
		"20260403", "20260406", // 复活节
		"20260501",
		"20260525", // 佛诞
		"20260619", // 端午
		"20260701",
		"20260928", // 中秋翌日
		"20261001", "20261002",
		"20261019", // 重阳
		"20261225",
	},
}
