package job

import (
	"path/filepath"

	"github.com/vk/trimgrid/internal/tools"
)

// Layout places every artifact of a run under one output directory:
//
//	<out>/trimmed/<sample>_1.trimmed.fastq.gz
//	<out>/trimmed/<sample>_2.trimmed.fastq.gz
//	<out>/reports/html/<sample>.html
//	<out>/reports/json/<sample>.json
//	<out>/aggregate/multiqc_report.html
//	<out>/aggregate/multiqc_data/
//	<out>/logs/<job id>.log
type Layout struct {
	OutDir string
}

func (l Layout) TrimmedDir() string    { return filepath.Join(l.OutDir, "trimmed") }
func (l Layout) HTMLReportDir() string { return filepath.Join(l.OutDir, "reports", "html") }
func (l Layout) JSONReportDir() string { return filepath.Join(l.OutDir, "reports", "json") }
func (l Layout) AggregateDir() string  { return filepath.Join(l.OutDir, "aggregate") }
func (l Layout) LogDir() string        { return filepath.Join(l.OutDir, "logs") }

// Dirs returns every directory the run writes into.
func (l Layout) Dirs() []string {
	return []string{l.TrimmedDir(), l.HTMLReportDir(), l.JSONReportDir(), l.AggregateDir(), l.LogDir()}
}

// TrimOutputs returns the four artifact paths of a sample's trim job.
func (l Layout) TrimOutputs(sample string) tools.TrimOutputs {
	return tools.TrimOutputs{
		Left:  filepath.Join(l.TrimmedDir(), sample+"_1.trimmed.fastq.gz"),
		Right: filepath.Join(l.TrimmedDir(), sample+"_2.trimmed.fastq.gz"),
		HTML:  filepath.Join(l.HTMLReportDir(), sample+".html"),
		JSON:  filepath.Join(l.JSONReportDir(), sample+".json"),
	}
}

// AggregateReport is the aggregate job's html report path.
func (l Layout) AggregateReport() string {
	return filepath.Join(l.AggregateDir(), tools.AggregateReportName)
}

// AggregateData is the aggregate job's report-data directory.
func (l Layout) AggregateData() string {
	return filepath.Join(l.AggregateDir(), tools.AggregateDataName)
}

// LogPath is where a job's captured stdout and stderr go.
func (l Layout) LogPath(jobID string) string {
	return filepath.Join(l.LogDir(), jobID+".log")
}
