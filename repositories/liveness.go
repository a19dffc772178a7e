package repositories

import "context"

func (repo *KycDbRepository) Liveness(ctx context.Context, exec Executor) error {
	var result int
	if err := exec.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}
	return nil
}
