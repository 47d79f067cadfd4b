package credits

import "context"

// CreatePlan adds a plan to the catalog.
func (service *Service) CreatePlan(ctx context.Context, name string, description string, price Price, credits Credits, terms PlanTerms) (Plan, error) {
	var plan Plan
	planID, err := NewPlanID(service.newID())
	if err == nil {
		plan, err = NewPlan(planID, name, description, price, credits, terms)
	}
	if err == nil {
		err = service.store.CreatePlan(ctx, plan)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationCreatePlan,
		Amount:    credits.Int64(),
		Error:     err,
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// GetPlan returns the plan or ErrPlanNotFound.
func (service *Service) GetPlan(ctx context.Context, planID PlanID) (Plan, error) {
	return service.store.GetPlan(ctx, planID)
}

// ListPlans returns the catalog.
func (service *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return service.store.ListPlans(ctx)
}

// AddPaymentMethod stores a payment method offered on the purchase screen.
func (service *Service) AddPaymentMethod(ctx context.Context, name string, details string, hint string) (PaymentMethod, error) {
	var method PaymentMethod
	methodID, err := NewPaymentMethodID(service.newID())
	if err == nil {
		method, err = NewPaymentMethod(methodID, name, details, hint)
	}
	if err == nil {
		err = service.store.CreatePaymentMethod(ctx, method)
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationAddMethod,
		Error:     err,
	})
	if err != nil {
		return PaymentMethod{}, err
	}
	return method, nil
}

// RemovePaymentMethod deletes a payment method. Existing requests keep their note.
func (service *Service) RemovePaymentMethod(ctx context.Context, methodID PaymentMethodID) error {
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetPaymentMethod(ctx, methodID); err != nil {
			return err
		}
		return transactionStore.DeletePaymentMethod(ctx, methodID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRemoveMethod,
		Error:     err,
	})
	return err
}

// ListPaymentMethods returns every configured payment method.
func (service *Service) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	return service.store.ListPaymentMethods(ctx)
}

// Stats summarizes accounts, requests and plans.
func (service *Service) Stats(ctx context.Context) (Stats, error) {
	accounts, err := service.store.ListAccounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	pending, err := service.store.ListRequests(ctx, RequestFilter{Status: RequestStatusPending})
	if err != nil {
		return Stats{}, err
	}
	plans, err := service.store.ListPlans(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		TotalAccounts:   len(accounts),
		PendingRequests: len(pending),
		PlanCount:       len(plans),
	}
	for _, account := range accounts {
		stats.TotalCredits += account.Credits().Int64()
	}
	return stats, nil
}
