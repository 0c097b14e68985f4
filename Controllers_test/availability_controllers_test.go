package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-app/models"
)

func TestGetAvailableTablesHandler(t *testing.T) {
	env := newEnv(t, "availtables")
	env.seedDefaultHours(t)
	env.seedTable(t, 1, 2)
	env.seedTable(t, 2, 4)
	day := nextOpenDay()
	date := day.Format("2006-01-02")

	env.seedBooking(t, 1, clockAt(day, 19, 0), 120, models.BookingConfirmed)

	w := env.request(t, "GET", "/tables/availability?date="+date+"&time=19:00", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_open"])
	available := data["available_tables"].([]interface{})
	require.Len(t, available, 1)
	table := available[0].(map[string]interface{})
	assert.EqualValues(t, 2, table["table_id"])
	assert.EqualValues(t, 2, data["total_tables"])
	assert.EqualValues(t, 1, data["booked_tables"])

	// Party size filter drops the two-seater.
	w = env.request(t, "GET", "/tables/availability?date="+date+"&time=14:00&partySize=4", nil)
	response = decode(t, w)
	data = response["data"].(map[string]interface{})
	available = data["available_tables"].([]interface{})
	require.Len(t, available, 1)

	// Missing parameters.
	w = env.request(t, "GET", "/tables/availability?date="+date, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailableTimeSlotsHandler(t *testing.T) {
	env := newEnv(t, "availslots")
	env.seedDefaultHours(t)
	env.seedTable(t, 1, 4)
	day := nextOpenDay()
	date := day.Format("2006-01-02")

	w := env.request(t, "GET", "/tables/availability/times?date="+date, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_open"])
	slots := data["available_times"].([]interface{})
	assert.NotEmpty(t, slots)

	hours := data["opening_hours"].(map[string]interface{})
	assert.Equal(t, hours["open"], slots[0])

	// No table seats a party of 10: 409.
	w = env.request(t, "GET", "/tables/availability/times?date="+date+"&partySize=10", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	response = decode(t, w)
	errData := response["data"].(map[string]interface{})
	assert.Equal(t, "no_available_table", errData["kind"])

	// Past date: 400.
	w = env.request(t, "GET", "/tables/availability/times?date=2020-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing date: 400.
	w = env.request(t, "GET", "/tables/availability/times", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
