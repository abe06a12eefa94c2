package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/labelport/internal/domain/annotation"
	"github.com/rpggio/labelport/internal/repository"
)

// TaskStore implements repository.TaskStore for SQLite
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// SaveTask persists a task snapshot, replacing any previous snapshot with
// the same id.
func (s *TaskStore) SaveTask(ctx context.Context, task *annotation.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updatedAt := task.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ?`, task.ID); err != nil {
		return fmt.Errorf("failed to replace task: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (id, name, size, mode, overlap, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID, task.Name, task.Size, string(task.Mode), task.Overlap, updatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	for position, label := range task.Labels {
		attrs, err := json.Marshal(label.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode label attributes: %w", err)
		}
		var kpNames, kpSkeleton any
		if info, ok := task.Keypoints[position]; ok {
			names, err := json.Marshal(info.Names)
			if err != nil {
				return fmt.Errorf("failed to encode keypoint names: %w", err)
			}
			skeleton, err := json.Marshal(info.Skeleton)
			if err != nil {
				return fmt.Errorf("failed to encode keypoint skeleton: %w", err)
			}
			kpNames, kpSkeleton = string(names), string(skeleton)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO labels (task_id, position, name, attributes, keypoint_names, keypoint_skeleton)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			task.ID, position, label.Name, string(attrs), kpNames, kpSkeleton,
		); err != nil {
			return fmt.Errorf("failed to insert label: %w", err)
		}
	}

	for i := range task.Images {
		img := &task.Images[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO images (task_id, id, name, subset, width, height, flipped)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			task.ID, img.ID, img.Name, img.Subset, img.Width, img.Height, img.Flipped,
		); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
		for position := range img.Annotations {
			if err := insertAnnotation(ctx, tx, task.ID, img.ID, position, &img.Annotations[position]); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task: %w", err)
	}
	return nil
}

func insertAnnotation(ctx context.Context, tx *sql.Tx, taskID int64, imageID, position int, a *annotation.Annotation) error {
	var attrs, points, visibility, maskRLE any
	if len(a.Attributes) > 0 {
		data, err := json.Marshal(a.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode annotation attributes: %w", err)
		}
		attrs = string(data)
	}
	geometry := a.Points
	if a.Kind == annotation.KindBox {
		geometry = []float64{a.XTL, a.YTL, a.XBR, a.YBR}
	}
	if len(geometry) > 0 {
		data, err := json.Marshal(geometry)
		if err != nil {
			return fmt.Errorf("failed to encode annotation points: %w", err)
		}
		points = string(data)
	}
	if len(a.Visibility) > 0 {
		data, err := json.Marshal(a.Visibility)
		if err != nil {
			return fmt.Errorf("failed to encode annotation visibility: %w", err)
		}
		visibility = string(data)
	}
	if a.Mask != nil {
		data, err := json.Marshal(a.Mask.RLE())
		if err != nil {
			return fmt.Errorf("failed to encode annotation mask: %w", err)
		}
		maskRLE = string(data)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO annotations (
			task_id, image_id, position, source_id, kind, label, occluded,
			z_order, group_id, attributes, points, visibility, mask_rle, caption
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		taskID, imageID, position, a.ID, string(a.Kind), a.Label, a.Occluded,
		a.ZOrder, a.Group, attrs, points, visibility, maskRLE, a.Caption,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}

// GetTask materializes a task snapshot by id
func (s *TaskStore) GetTask(ctx context.Context, id int64) (*annotation.Task, error) {
	task := &annotation.Task{ID: id}

	var mode string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, size, mode, overlap, updated_at FROM tasks WHERE id = ?`, id,
	).Scan(&task.Name, &task.Size, &mode, &task.Overlap, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	task.Mode = annotation.TaskMode(mode)

	if err := s.loadLabels(ctx, task); err != nil {
		return nil, err
	}
	if err := s.loadImages(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskStore) loadLabels(ctx context.Context, task *annotation.Task) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, attributes, keypoint_names, keypoint_skeleton
		 FROM labels WHERE task_id = ? ORDER BY position`, task.ID)
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var position int
		var label annotation.Label
		var attrs string
		var kpNames, kpSkeleton sql.NullString
		if err := rows.Scan(&position, &label.Name, &attrs, &kpNames, &kpSkeleton); err != nil {
			return fmt.Errorf("failed to scan label: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &label.Attributes); err != nil {
			return fmt.Errorf("failed to decode label attributes: %w", err)
		}
		task.Labels = append(task.Labels, label)

		if kpNames.Valid {
			var info annotation.KeypointInfo
			if err := json.Unmarshal([]byte(kpNames.String), &info.Names); err != nil {
				return fmt.Errorf("failed to decode keypoint names: %w", err)
			}
			if kpSkeleton.Valid {
				if err := json.Unmarshal([]byte(kpSkeleton.String), &info.Skeleton); err != nil {
					return fmt.Errorf("failed to decode keypoint skeleton: %w", err)
				}
			}
			if task.Keypoints == nil {
				task.Keypoints = map[int]annotation.KeypointInfo{}
			}
			task.Keypoints[position] = info
		}
	}
	return rows.Err()
}

func (s *TaskStore) loadImages(ctx context.Context, task *annotation.Task) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, subset, width, height, flipped
		 FROM images WHERE task_id = ? ORDER BY id`, task.ID)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	index := map[int]int{}
	for rows.Next() {
		var img annotation.Image
		if err := rows.Scan(&img.ID, &img.Name, &img.Subset, &img.Width, &img.Height, &img.Flipped); err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		index[img.ID] = len(task.Images)
		task.Images = append(task.Images, img)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return s.loadAnnotations(ctx, task, index)
}

func (s *TaskStore) loadAnnotations(ctx context.Context, task *annotation.Task, index map[int]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_id, source_id, kind, label, occluded, z_order, group_id,
		        attributes, points, visibility, mask_rle, caption
		 FROM annotations WHERE task_id = ? ORDER BY image_id, position`, task.ID)
	if err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var imageID int
		var a annotation.Annotation
		var kind string
		var zOrder, group sql.NullInt64
		var attrs, points, visibility, maskRLE sql.NullString
		if err := rows.Scan(&imageID, &a.ID, &kind, &a.Label, &a.Occluded,
			&zOrder, &group, &attrs, &points, &visibility, &maskRLE, &a.Caption); err != nil {
			return fmt.Errorf("failed to scan annotation: %w", err)
		}
		a.Kind = annotation.Kind(kind)
		if zOrder.Valid {
			v := int(zOrder.Int64)
			a.ZOrder = &v
		}
		if group.Valid {
			v := int(group.Int64)
			a.Group = &v
		}
		if attrs.Valid {
			if err := json.Unmarshal([]byte(attrs.String), &a.Attributes); err != nil {
				return fmt.Errorf("failed to decode annotation attributes: %w", err)
			}
		}

		var geometry []float64
		if points.Valid {
			if err := json.Unmarshal([]byte(points.String), &geometry); err != nil {
				return fmt.Errorf("failed to decode annotation points: %w", err)
			}
		}
		if a.Kind == annotation.KindBox {
			if len(geometry) != 4 {
				return fmt.Errorf("box annotation with %d stored coordinates", len(geometry))
			}
			a.XTL, a.YTL, a.XBR, a.YBR = geometry[0], geometry[1], geometry[2], geometry[3]
		} else {
			a.Points = geometry
		}

		if visibility.Valid {
			if err := json.Unmarshal([]byte(visibility.String), &a.Visibility); err != nil {
				return fmt.Errorf("failed to decode annotation visibility: %w", err)
			}
		}

		pos, ok := index[imageID]
		if !ok {
			return fmt.Errorf("annotation references unknown image %d", imageID)
		}
		if maskRLE.Valid {
			var counts []int
			if err := json.Unmarshal([]byte(maskRLE.String), &counts); err != nil {
				return fmt.Errorf("failed to decode annotation mask: %w", err)
			}
			img := &task.Images[pos]
			mask, err := annotation.MaskFromRLE(img.Width, img.Height, counts)
			if err != nil {
				return fmt.Errorf("failed to rebuild annotation mask: %w", err)
			}
			a.Mask = mask
		}

		task.Images[pos].Annotations = append(task.Images[pos].Annotations, a)
	}
	return rows.Err()
}

// TouchTask bumps the task's last-modified timestamp
func (s *TaskStore) TouchTask(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to touch task: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
