package common

import (
	"os"
	"sync"

	"github.com/google/uuid"
)

var (
	serviceInstance     string
	serviceInstanceOnce sync.Once
)

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		name = "authkernel"
	}
	return name
}

func GetServiceInstance() string {
	serviceInstanceOnce.Do(func() {
		serviceInstance = os.Getenv("SERVICE_INSTANCE")
		if serviceInstance == "" {
			serviceInstance = uuid.New().String()
		}
	})
	return serviceInstance
}
