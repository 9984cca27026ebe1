package backendtest

// UpgradeCost is the flat point price of an item upgrade
const UpgradeCost = 50
