package model

// VisitReportHeaders 就诊报表工作表的表头（与查询列顺序一致）
var VisitReportHeaders = []string{
	"VN", "HN", "AN", "VstDate", "VstTime", "ผู้ซักประวัติ", "รหัสแพทย์", "ชื่อแพทย์",
	"PE", "Dx_Text", "CC", "Hpi", "PDx", "Dx1", "Dx2", "Dx3",
}
