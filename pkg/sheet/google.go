package sheet

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleBackend 基于 Google Sheets API 的工作表实现
type GoogleBackend struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string
	sheetID       int64
}

// OpenGoogle 使用服务账号凭证打开表格中的工作表；title 为空时使用第一个工作表
func OpenGoogle(ctx context.Context, credentialsFile, spreadsheetID, title string) (*GoogleBackend, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 Sheets 客户端失败: %w", err)
	}

	b := &GoogleBackend{svc: svc, spreadsheetID: spreadsheetID, title: title}
	props, err := b.properties(ctx)
	if err != nil {
		return nil, err
	}
	b.title = props.Title
	b.sheetID = props.SheetId
	return b, nil
}

func (b *GoogleBackend) Values(ctx context.Context) ([][]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, quote(b.title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *GoogleBackend) Header(ctx context.Context) ([]string, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(b.spreadsheetID, quote(b.title)+"!1:1").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	return header, nil
}

func (b *GoogleBackend) AppendRows(ctx context.Context, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = make([]interface{}, len(r))
		for j, v := range r {
			values[i][j] = literal(v)
		}
	}
	_, err := b.svc.Spreadsheets.Values.Append(b.spreadsheetID, quote(b.title)+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("追加行失败: %w", err)
	}
	return nil
}

func (b *GoogleBackend) DeleteRow(ctx context.Context, row int) error {
	if row < 1 {
		return ErrRowOutOfRange
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    b.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := b.svc.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("删除第 %d 行失败: %w", row, err)
	}
	return nil
}

func (b *GoogleBackend) RowCount(ctx context.Context) (int, error) {
	props, err := b.properties(ctx)
	if err != nil {
		return 0, err
	}
	if props.GridProperties == nil {
		return 0, nil
	}
	return int(props.GridProperties.RowCount), nil
}

func (b *GoogleBackend) ClearBelowHeader(ctx context.Context, width int) error {
	last, err := b.RowCount(ctx)
	if err != nil {
		return err
	}
	if last <= 1 {
		return nil
	}
	if width <= 0 {
		width = 26
	}
	rng := fmt.Sprintf("%s!A2:%s%d", quote(b.title), ColumnLetter(width), last)
	_, err = b.svc.Spreadsheets.Values.BatchClear(b.spreadsheetID, &sheets.BatchClearValuesRequest{
		Ranges: []string{rng},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("清空 %s 失败: %w", rng, err)
	}
	return nil
}

func (b *GoogleBackend) properties(ctx context.Context) (*sheets.SheetProperties, error) {
	ss, err := b.svc.Spreadsheets.Get(b.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("读取表格信息失败: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		if b.title == "" || s.Properties.Title == b.title {
			return s.Properties, nil
		}
	}
	return nil, fmt.Errorf("工作表 %q 不存在", b.title)
}

// quote 生成 A1 表示法中的工作表名，名称中的单引号需双写
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// literal USER_ENTERED 模式下以 = + @ 开头的内容会被当作公式，加前导单引号按文本保存
func literal(v string) string {
	if v != "" && strings.ContainsRune("=+@", rune(v[0])) {
		return "'" + v
	}
	return v
}
