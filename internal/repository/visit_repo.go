package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// visitSinceSQL 查询 since 至今天的门诊就诊记录
// SQL 固定在服务端，只接受日期参数
const visitSinceSQL = `
SELECT
    o.vn AS 'VN'
    ,MAX(o.hn) AS 'HN'
    ,MAX(o.an) AS 'AN'
    ,MAX(o.vstdate) AS 'VstDate'
    ,MAX(o.vsttime) AS 'VstTime'
    ,MAX(ou.name) AS 'ผู้ซักประวัติ'
    ,MAX(o.doctor) AS 'รหัสแพทย์'
    ,MAX(d.name) AS 'ชื่อแพทย์'
    ,MAX(os.pe) AS 'PE'
    ,MAX(od.diag_text) AS 'Dx_Text'
    ,MAX(os.cc) AS 'CC'
    ,MAX(os.hpi) AS 'Hpi'
    ,MAX(v.pdx) AS 'PDx'
    ,MAX(v.dx1) AS 'Dx1'
    ,MAX(v.dx2) AS 'Dx2'
    ,MAX(v.dx3) AS 'Dx3'
FROM ovst o
LEFT OUTER JOIN opdscreen os ON o.vn = os.vn
LEFT OUTER JOIN doctor d ON o.doctor = d.code
LEFT OUTER JOIN screen_doctor sd ON sd.vn = o.vn
LEFT OUTER JOIN opduser ou ON ou.loginname = sd.staff
LEFT OUTER JOIN vn_stat v ON v.vn = o.vn
LEFT OUTER JOIN ovst_doctor_diag od ON od.vn = o.vn
WHERE o.vstdate BETWEEN ? AND CURDATE()
GROUP BY o.vn
ORDER BY MAX(o.vstdate) DESC, MAX(o.vsttime) DESC, MAX(o.doctor) DESC`

// VisitRepository 医院就诊记录（HOSxP，只读）
type VisitRepository interface {
	// ListSince 返回 since（YYYY-MM-DD）至今的就诊行，NULL 转为空字符串
	ListSince(ctx context.Context, since string) ([][]string, error)
}

type visitRepo struct {
	db *gorm.DB
}

// NewVisitRepo 创建 VisitRepository 实例
func NewVisitRepo(db *gorm.DB) VisitRepository {
	return &visitRepo{db: db}
}

func (r *visitRepo) ListSince(ctx context.Context, since string) ([][]string, error) {
	rows, err := r.db.WithContext(ctx).Raw(visitSinceSQL, since).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// scanStrings 将任意列数的结果集转为字符串矩阵
func scanStrings(rows *sql.Rows) ([][]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
