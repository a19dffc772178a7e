package repositories

// KycDbRepository holds every sql query of the service. Its methods take the executor
// explicitly so that the usecases decide the transaction boundaries.
type KycDbRepository struct{}

func NewKycDbRepository() *KycDbRepository {
	return &KycDbRepository{}
}
