package entity

// Department describes one factory department's form variant: who can file,
// which customers and job types are offered, and how records are routed.
type Department struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Workers []string `json:"workers"`

	// Customers excludes the sentinels; CustomerMisc and CustomerOther are
	// appended to the option list by the form layer.
	Customers []string `json:"customers"`
	JobTypes  []string `json:"job_types"`

	// EstimateJobType, when set, pre-fills the job number field with
	// EstimateJobNumber once that job type is chosen.
	EstimateJobType   string `json:"estimate_job_type,omitempty"`
	EstimateJobNumber string `json:"estimate_job_number,omitempty"`

	// AutoJobType routes records to the auxiliary destination with their own
	// hour total and no trailing summary.
	AutoJobType string `json:"auto_job_type,omitempty"`

	SlotCap      int    `json:"slot_cap"`
	ReleaseNotes string `json:"release_notes,omitempty"`
}

// HasAutoRouting reports whether any job type routes to the auxiliary
// destination.
func (d Department) HasAutoRouting() bool {
	return d.AutoJobType != ""
}

// CustomerOptions returns the full customer select options, sentinel first.
func (d Department) CustomerOptions() []string {
	opts := make([]string, 0, len(d.Customers)+3)
	opts = append(opts, SentinelChoose)
	opts = append(opts, d.Customers...)
	opts = append(opts, CustomerMisc, CustomerOther)
	return opts
}

// JobTypeOptions returns the job type select options, sentinel first.
func (d Department) JobTypeOptions() []string {
	opts := make([]string, 0, len(d.JobTypes)+1)
	opts = append(opts, SentinelChoose)
	opts = append(opts, d.JobTypes...)
	return opts
}

// IsWorker reports whether name is a real worker of the department.
func (d Department) IsWorker(name string) bool {
	for _, w := range d.Workers {
		if w == name {
			return true
		}
	}
	return false
}

// DefaultDepartments returns the built-in department catalogues.
func DefaultDepartments() map[string]Department {
	return map[string]Department{
		"cad": {
			Code: "cad",
			Name: "北青 CAD課作業日報",
			Workers: []string{
				"富寛", "鈴木", "斎藤", "古郡",
			},
			Customers: []string{
				"ジーテクト", "ヨロズ", "城山", "タチバナ", "浜岳", "三池", "東プレ",
				"東海鉄工所", "坪山", "インフェック", "千代田", "海津",
			},
			JobTypes:          []string{"新規", "改修", "設変", "見積", "SIM", "その他"},
			EstimateJobType:   "見積",
			EstimateJobNumber: "見積用造形、解析",
			SlotCap:           10,
			ReleaseNotes: "●メーカー名に海津を追加。\n●メーカー名にインフェックを追加。\n" +
				"●作業内容が見積の場合は工番の入力を自動にしました。\n" +
				"●名前を選択していないと次の入力に進めない方式に変更しました。\n" +
				"●メーカー名に”坪山”を追加しました。\n" +
				"●一度に送信できる作業を10件まで増やしました。",
		},
		"machining": {
			Code: "machining",
			Name: "北青 機械課 作業日報",
			Workers: []string{
				"大地", "山岸", "坂本", "一條", "松本", "将", "出繩",
			},
			Customers: []string{
				"ジーテクト", "ヨロズ", "城山", "タチバナ", "浜岳", "三池", "東プレ",
				"千代田", "武部", "インフェック", "東海鉄工所",
			},
			JobTypes:    []string{"新規", "改修", "その他", "自動運転"},
			AutoJobType: "自動運転",
			SlotCap:     10,
			ReleaseNotes: "・作業内容に『自動運転』を追加\n" +
				"・名前を選択していないと次に進めない方式に変更\n" +
				"・一度に送信できる作業を10件までに増加\n" +
				"・メーカーに東海鉄工所を追加",
		},
		"finishing": {
			Code: "finishing",
			Name: "北青 仕上げ課 作業日報",
			Workers: []string{
				"吉田", "中村", "渡辺", "福田", "苫米地", "矢部", "小野",
				"塩入", "トム", "ユン", "ティエン", "チョン", "アイン", "ナム",
			},
			Customers: []string{
				"ジーテクト", "ヨロズ", "城山", "タチバナ", "浜岳", "三池", "東プレ",
				"協豊", "千代田", "東海鉄工所",
			},
			JobTypes: []string{"新規", "玉成", "設変", "パネル", "トライ", "その他"},
			SlotCap:  10,
			ReleaseNotes: "- メーカー名に 協豊 を追加\n- 一度に送信できる作業を 10件 までに増加\n" +
				"- メーカーに 東海鉄工所 を追加\n- 起動ハング対策（外部接続の遅延実行・タイムアウト）",
		},
	}
}
