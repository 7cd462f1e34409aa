package board

import "trackit/internal/models"

// Columns はボードの列ごとのタスクです。
type Columns struct {
	ByStatus map[models.TaskStatus][]*models.Task
	// Orphans は3つの列のどれにも属さないステータスのタスクです。
	Orphans []*models.Task
}

// Column は指定した列のタスクを返します。
func (c Columns) Column(status models.TaskStatus) []*models.Task {
	return c.ByStatus[status]
}

// Partition はタスクをステータスで列に振り分けます。列内の順序は一覧の順序のままです。
func Partition(tasks []*models.Task) Columns {
	cols := Columns{ByStatus: make(map[models.TaskStatus][]*models.Task, len(models.Statuses))}
	for _, s := range models.Statuses {
		cols.ByStatus[s] = []*models.Task{}
	}
	for _, t := range tasks {
		if t.Status.Valid() {
			cols.ByStatus[t.Status] = append(cols.ByStatus[t.Status], t.Clone())
			continue
		}
		cols.Orphans = append(cols.Orphans, t.Clone())
	}
	return cols
}
