package service

import (
	"smart-schedule/internal/model"
	"smart-schedule/pkg/gemini"
)

// ── 识别请求构建 ──────────────────────────────────────────────
//
// 合并单元格（跨多节的课程）是课表识别的主要误差来源：多节课在图片上是
// 一个色块，但文字只占顶部一小段。提示词要求模型以格线和色块高度为准，
// 并用色块底边对齐的行号核对跨度，否则多节课会被截成一节。
// analysis_log 排在 courses 之前，让模型先描述网格结构再输出结构化结果。
// ─────────────────────────────────────────────────────────────

// 响应字段名
const (
	fieldScheduleName = "scheduleName"
	fieldAnalysisLog  = "analysis_log"
	fieldCourses      = "courses"
)

// RequestOptions 请求构建选项
type RequestOptions struct {
	ThinkingBudget     int  // 0 表示不设置推理预算
	RequestAnalysisLog bool // 是否要求输出 analysis_log
}

const extractionPrompt = `You are an expert visual data analyst for academic timetables. Your goal is to generate a perfect digital replica of this schedule by combining text recognition with strict geometric analysis.

**COMPREHENSIVE IDENTIFICATION STRATEGY:**
Verify every finding with three methods before outputting data:
1. **Text Reading**: What does the text say? (Subject, Room, Teacher)
2. **Grid Topology**: Where are the lines? The black/gray grid lines are the absolute truth.
3. **Visual Proportions**: How tall is the colored block relative to the row numbers on the left?

**CRITICAL RULES FOR ACCURACY:**

1. **THE "GRID LINE" LAW (duration)**:
   - IGNORE TEXT SPACING. A course duration is determined by the cell borders, not by how much space the text takes.
   - LOOK FOR DIVIDERS. If a block starts at row 1 and there is no solid horizontal divider until the bottom of row 4, it is a 4-period course.
   - EMPTY SPACE IS VALID. Text often sits at the top of a tall block; the empty colored space below belongs to the same course. Do not cut it short.

2. **HEIGHT-BASED VERIFICATION**:
   - Read the period numbers on the left (1, 2, 3, 4...).
   - Measure the height of one standard row and compare the block height against it.
   - Find the row index aligned with the block's BOTTOM edge; that index is endPeriod. If you extracted "1-2" but the bottom edge aligns with row 4, correct it to "1-4".

3. **COLUMN ALIGNMENT**:
   - Align each column strictly with its day header (Mon, Tue, Wed...). Trace the vertical line up to the header; never guess the day.

4. **DATA FIELDS**:
   - subject: main bold text.
   - location: room codes such as "A101" or "3-205".
   - startTime/endTime: extract if written in the row header or the cell (e.g. 08:00-09:35).
   - startPeriod/endPeriod: map visual rows strictly to the numbers 1, 2, 3, 4...`

const analysisLogInstruction = `

Before listing courses, describe the grid in analysis_log: the number of period rows, the day columns, and for every multi-period block the rows its top and bottom borders align with.`

const outputInstruction = `

Output pure JSON matching the schema.`

// BuildExtractionRequest 组装识别请求：图片 + 指令 + 严格输出 Schema
func BuildExtractionRequest(img *EncodedImage, opts RequestOptions) *gemini.GenerateRequest {
	prompt := extractionPrompt
	if opts.RequestAnalysisLog {
		prompt += analysisLogInstruction
	}
	prompt += outputInstruction

	cfg := &gemini.GenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   ExtractionSchema(opts.RequestAnalysisLog),
	}
	if opts.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &gemini.ThinkingConfig{ThinkingBudget: opts.ThinkingBudget}
	}

	return &gemini.GenerateRequest{
		Contents: []gemini.Content{{
			Role: "user",
			Parts: []gemini.Part{
				{InlineData: &gemini.InlineData{MimeType: img.MimeType, Data: img.Data}},
				{Text: prompt},
			},
		}},
		GenerationConfig: cfg,
	}
}

// ExtractionSchema 识别结果的输出 Schema
func ExtractionSchema(withAnalysisLog bool) *gemini.Schema {
	course := &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"day": {Type: gemini.TypeString, Enum: model.DayNames()},
			"startPeriod": {
				Type:        gemini.TypeInteger,
				Description: "Row number (1-based) where the cell's TOP border aligns.",
			},
			"endPeriod": {
				Type:        gemini.TypeInteger,
				Description: "Row number (1-based) where the cell's BOTTOM border aligns.",
			},
			"subject":   {Type: gemini.TypeString},
			"location":  {Type: gemini.TypeString, Nullable: true},
			"teacher":   {Type: gemini.TypeString, Nullable: true},
			"startTime": {Type: gemini.TypeString, Nullable: true},
			"endTime":   {Type: gemini.TypeString, Nullable: true},
		},
		PropertyOrdering: []string{"day", "startPeriod", "endPeriod", "subject", "location", "teacher", "startTime", "endTime"},
		Required:         []string{"day", "subject", "startPeriod", "endPeriod"},
	}

	root := &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			fieldScheduleName: {
				Type:        gemini.TypeString,
				Description: "Title of the schedule (e.g. 'Class Schedule 2024')",
			},
			fieldCourses: {Type: gemini.TypeArray, Items: course},
		},
		PropertyOrdering: []string{fieldScheduleName, fieldCourses},
		Required:         []string{fieldCourses},
	}

	if withAnalysisLog {
		root.Properties[fieldAnalysisLog] = &gemini.Schema{
			Type:        gemini.TypeString,
			Description: "Grid topology reasoning written BEFORE the courses array: row count, columns, and the top/bottom row of every multi-period block.",
		}
		root.PropertyOrdering = []string{fieldAnalysisLog, fieldScheduleName, fieldCourses}
	}

	return root
}
